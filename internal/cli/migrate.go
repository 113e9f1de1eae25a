package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/migration"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// MigrateOptions holds flags for the migrate subcommands.
type MigrateOptions struct {
	*RootOptions
	Types []string
}

type migrateResult struct {
	Saved       int      `json:"saved"`
	Skipped     int      `json:"skipped"`
	Undecodable []string `json:"undecodable,omitempty"`
	Failed      []string `json:"failed,omitempty"`
}

func (r migrateResult) String() string {
	s := fmt.Sprintf("reindexed %d record(s)", r.Saved)
	if n := len(r.Undecodable); n > 0 {
		s += fmt.Sprintf(", %d without a registered type", n)
	}
	if n := len(r.Failed); n > 0 {
		s += fmt.Sprintf(", %d failed", n)
	}
	return s
}

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite stored records",
	}
	cmd.AddCommand(newReindexCommand(rootOpts))
	return cmd
}

func newReindexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Recompute full-text and index rows of typed records",
		Long: `Recompute the full-text and secondary index rows of every typed record,
or of the types named with --type. Run after upgrading to a version that
indexes records differently.

Records that fail to decode are reported and left unchanged; the command
then exits with status 1.`,
		Example: `  constructdb migrate reindex --db construct.db
  constructdb migrate reindex --db construct.db --type entry`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			scope := queryir.All()
			var prefixes []entity.Prefix
			if len(opts.Types) > 0 {
				scopes := make([]string, 0, len(opts.Types))
				for _, t := range opts.Types {
					p := entity.Prefix(t)
					prefixes = append(prefixes, p)
					scopes = append(scopes, p.Scope())
				}
				scope = queryir.KeyPrefix(scopes...)
			}

			m := migration.New(
				migration.WithLogger(s.logger),
				migration.WithMetrics(s.store.Metrics()),
			)
			res, err := m.Run(cmd.Context(), s.store, migration.Options{
				Scope:              scope,
				Visitors:           []migration.Visitor{migration.Reindex(prefixes...)},
				ConflictResolution: migration.Skip{},
			})
			if err != nil {
				return err
			}

			out := migrateResult{
				Saved:       len(res.Saved),
				Skipped:     len(res.Skipped),
				Undecodable: res.Undecodable,
				Failed:      res.Failed,
			}
			if err := s.out.Success(out); err != nil {
				return err
			}
			if len(res.Failed) > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) could not be reindexed", len(res.Failed)))
			}
			return nil
		}),
	}

	cmd.Flags().StringArrayVar(&opts.Types, "type", nil, "key prefix of a type to reindex (repeatable)")

	return cmd
}
