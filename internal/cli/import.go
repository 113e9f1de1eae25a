package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
	"github.com/Thomvis/Construct-sub002/internal/loader"
)

type importResult struct {
	compendium.ImportResult
	Source string `json:"source"`
}

func (r importResult) String() string {
	return fmt.Sprintf("imported %d entries from %s (%d realms, %d documents created, job %s)",
		r.Entries, r.Source, r.RealmsCreated, r.DocumentsCreated, r.JobKey)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a compendium fixture (.yaml, .cue or .json)",
		Long: `Import a compendium fixture (.yaml, .cue or .json).

The fixture is validated against the built-in schema before anything is
written. Realms and documents it declares are created unless they exist;
entries are written into the fixture's document, all in one transaction.`,
		Example:       `  constructdb import --db construct.db monsters.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			f, err := loader.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot load fixture", err)
			}
			s.out.VerboseLog("loaded %d entries for %s", len(f.Entries), f.Document)

			ctx := cmd.Context()
			c, err := s.compendium(ctx)
			if err != nil {
				return err
			}
			source := filepath.Base(args[0])
			res, err := loader.Import(ctx, c, f, source)
			if err != nil {
				return err
			}
			return s.out.Success(importResult{ImportResult: res, Source: source})
		}),
	}
}
