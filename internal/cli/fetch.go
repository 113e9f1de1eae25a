package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Prefixes []string
	Search   string
	Filters  []string
	Orders   []string
	Offset   int
	Limit    int
	KeysOnly bool
	Count    bool
}

type countResult struct {
	Count int `json:"count"`
}

func (r countResult) String() string { return strconv.Itoa(r.Count) }

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "List records matching a query",
		Long: `List records matching a query.

Indexes are given by id or by entry index name (title, document,
challengeRating, monsterType, spellLevel, itemType, realm). Filters take the
form <index>=<value>, <index>>=<value> or <index><=<value>; orders take the
form <index> or <index>:desc. Records without a value for a filtered or
ordered index are not listed.`,
		Example: `  constructdb fetch --db construct.db --prefix entry::monster:: --order challengeRating --order title
  constructdb fetch --db construct.db --search gob --keys
  constructdb fetch --db construct.db --filter 'challengeRating>=001.000' --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			req, err := opts.request()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid query", err)
			}
			ctx := cmd.Context()

			switch {
			case opts.Count:
				n, err := s.store.Count(ctx, req)
				if err != nil {
					return err
				}
				return s.out.Success(countResult{Count: n})
			case opts.KeysOnly:
				keys, err := s.store.FetchKeys(ctx, req)
				if err != nil {
					return err
				}
				return s.out.Success(keyList(keys))
			}

			records, err := s.store.FetchAllRaw(ctx, req)
			if err != nil {
				return err
			}
			views := make(recordList, 0, len(records))
			for _, rec := range records {
				views = append(views, viewOf(rec))
			}
			return s.out.Success(views)
		}),
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.Prefixes, "prefix", nil, "key prefix (repeatable, any matches)")
	flags.StringVar(&opts.Search, "search", "", "full-text search, every term matched as a prefix")
	flags.StringArrayVar(&opts.Filters, "filter", nil, "index filter (repeatable, all must match)")
	flags.StringArrayVar(&opts.Orders, "order", nil, "index to order by (repeatable)")
	flags.IntVar(&opts.Offset, "offset", 0, "skip this many results")
	flags.IntVar(&opts.Limit, "limit", 0, "return at most this many results (0 = all)")
	flags.BoolVar(&opts.KeysOnly, "keys", false, "print keys only")
	flags.BoolVar(&opts.Count, "count", false, "print the number of matches only")

	return cmd
}

func (o *FetchOptions) request() (queryir.Request, error) {
	req := queryir.All()
	for _, p := range o.Prefixes {
		req = req.WithKeyPrefix(p)
	}
	if o.Search != "" {
		req = req.WithSearch(o.Search)
	}
	for _, f := range o.Filters {
		idx, cond, err := parseFilter(f)
		if err != nil {
			return queryir.Request{}, err
		}
		req = req.WithFilter(idx, cond)
	}
	for _, ord := range o.Orders {
		name, dir, _ := strings.Cut(ord, ":")
		idx, err := parseIndex(name)
		if err != nil {
			return queryir.Request{}, err
		}
		switch dir {
		case "", "asc":
			req = req.OrderedBy(idx, true)
		case "desc":
			req = req.OrderedBy(idx, false)
		default:
			return queryir.Request{}, fmt.Errorf("invalid order direction %q in %q", dir, ord)
		}
	}
	if o.Offset < 0 || o.Limit < 0 {
		return queryir.Request{}, fmt.Errorf("offset and limit must not be negative")
	}
	if o.Offset > 0 || o.Limit > 0 {
		req = req.WithRange(o.Offset, o.Limit)
	}
	return req, queryir.Validate(req)
}

// parseFilter parses "<index>=<v>", "<index>>=<v>" or "<index><=<v>".
func parseFilter(s string) (int, queryir.Condition, error) {
	for _, op := range []string{">=", "<=", "="} {
		name, value, ok := strings.Cut(s, op)
		if !ok {
			continue
		}
		idx, err := parseIndex(name)
		if err != nil {
			return 0, nil, err
		}
		switch op {
		case ">=":
			return idx, queryir.GreaterThanOrEqual{Value: value}, nil
		case "<=":
			return idx, queryir.LessThanOrEqual{Value: value}, nil
		default:
			return idx, queryir.Equals{Value: value}, nil
		}
	}
	return 0, nil, fmt.Errorf("invalid filter %q, expected <index>=<value>, <index>>=<value> or <index><=<value>", s)
}

func parseIndex(s string) (int, error) {
	if idx, ok := compendium.IndexByName(s); ok {
		return idx, nil
	}
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("unknown index %q", s)
	}
	return idx, nil
}
