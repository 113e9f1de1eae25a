package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

var errKeyNotPresent = errors.New("key not present")

// recordView is the printable form of a record. Value is raw JSON when the
// stored value is JSON, a string otherwise.
type recordView struct {
	Key        string    `json:"key"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Value      any       `json:"value"`
}

func viewOf(rec store.Record) recordView {
	v := recordView{Key: rec.Key, ModifiedAt: rec.ModifiedAt.UTC()}
	if json.Valid(rec.Value) {
		v.Value = json.RawMessage(rec.Value)
	} else {
		v.Value = string(rec.Value)
	}
	return v
}

func (r recordView) String() string {
	if raw, ok := r.Value.(json.RawMessage); ok {
		return r.Key + "\t" + string(raw)
	}
	return fmt.Sprintf("%s\t%v", r.Key, r.Value)
}

type recordList []recordView

func (l recordList) String() string {
	lines := make([]string, len(l))
	for i, r := range l {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

type keyList []string

func (l keyList) String() string { return strings.Join(l, "\n") }

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the record stored under a key",
		Example: `  constructdb get --db construct.db realm::core
  constructdb get --db construct.db --format json "entry::monster::core::srd::Goblin"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			rec, err := s.store.GetRaw(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%w: %s", errKeyNotPresent, args[0])
			}
			return s.out.Success(viewOf(*rec))
		}),
	}
}

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	Title string
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put <key> <json>",
		Short: "Store a JSON value under a key",
		Long: `Store a JSON value under a key.

Values under a key owned by a registered type (realm::, document::, entry::,
importjob::, encounter::) are decoded first, and their full-text and index
rows are derived from the decoded value. Other keys are stored as is; --title
gives them a full-text row.`,
		Example:       `  constructdb put --db construct.db note::1 '{"text":"hello"}' --title hello`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			return putRecord(cmd, s, opts, args[0], []byte(args[1]))
		}),
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "full-text title for untyped records")

	return cmd
}

func putRecord(cmd *cobra.Command, s *session, opts *PutOptions, key string, value []byte) error {
	if !json.Valid(value) {
		return NewExitError(ExitCommandError, "value is not valid JSON")
	}
	ctx := cmd.Context()

	var putOpts []store.PutOption
	if opts.Title != "" {
		putOpts = append(putOpts, store.WithFTS(entity.FTSDocument{Title: opts.Title}))
	}

	reg := s.store.Registry()
	if _, typed := reg.Lookup(key); !typed {
		if err := s.store.Put(ctx, key, value, putOpts...); err != nil {
			return err
		}
	} else {
		e, err := reg.Decode(key, value)
		if err != nil {
			return WrapExitError(ExitCommandError, "value does not decode", err)
		}
		if e.RawKey() != key {
			return NewExitError(ExitCommandError, fmt.Sprintf("value belongs under %q, not %q", e.RawKey(), key))
		}
		if err := s.store.PutEntity(ctx, e, putOpts...); err != nil {
			return err
		}
	}

	rec, err := s.store.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	return s.out.Success(viewOf(*rec))
}

// RemoveOptions holds flags for the rm command.
type RemoveOptions struct {
	*RootOptions
	Prefix string
}

type removeResult struct {
	Removed int `json:"removed"`
}

func (r removeResult) String() string { return fmt.Sprintf("removed %d record(s)", r.Removed) }

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rm [<key>]",
		Short: "Remove a record, or every record under --prefix",
		Example: `  constructdb rm --db construct.db note::1
  constructdb rm --db construct.db --prefix note::`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.Prefix != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			ctx := cmd.Context()
			if opts.Prefix != "" {
				n, err := s.store.RemoveAll(ctx, queryir.KeyPrefix(opts.Prefix))
				if err != nil {
					return err
				}
				return s.out.Success(removeResult{Removed: n})
			}

			removed, err := s.store.Remove(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%w: %s", errKeyNotPresent, args[0])
			}
			return s.out.Success(removeResult{Removed: 1})
		}),
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "remove every record whose key starts with prefix")

	return cmd
}
