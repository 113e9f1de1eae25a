package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
)

// TransferOptions holds flags for the transfer command.
type TransferOptions struct {
	*RootOptions
	To       string
	Keys     []string
	From     string
	Mode     string
	Conflict string
}

type transferResult struct {
	Mode        compendium.TransferMode `json:"mode"`
	Target      string                  `json:"target"`
	Transferred []string                `json:"transferred"`
}

func (r transferResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d entries into %s", r.Mode, len(r.Transferred), r.Target)
	for _, k := range r.Transferred {
		b.WriteString("\n  ")
		b.WriteString(k)
	}
	return b.String()
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move or copy entries into another document",
		Long: `Move or copy entries into another document.

Select entries with --key (repeatable) or every entry of a document with
--from. When the target already holds an entry with the same key, --conflict
decides: skip leaves both as they are, overwrite replaces the target's entry,
keepBoth stores the transferred entry under a new title. Groups are never
transferred. After a move, references to moved entries are updated.

Prints the original keys of the transferred entries.`,
		Example: `  constructdb transfer --db construct.db --from homebrew/homebrew --to core/srd --mode copy
  constructdb transfer --db construct.db --key "entry::monster::core::srd::Goblin" --to homebrew/homebrew --conflict keepBoth`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			target, sel, mode, cr, err := opts.parse()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid transfer", err)
			}
			ctx := cmd.Context()
			c, err := s.compendium(ctx)
			if err != nil {
				return err
			}
			keys, err := c.Transfer(ctx, sel, mode, target, cr)
			if err != nil {
				return err
			}
			return s.out.Success(transferResult{Mode: mode, Target: target.Path(), Transferred: keys})
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.To, "to", "", "target document as <realm>/<document> (required)")
	flags.StringArrayVar(&opts.Keys, "key", nil, "entry key to transfer (repeatable)")
	flags.StringVar(&opts.From, "from", "", "transfer every entry of this <realm>/<document>")
	flags.StringVar(&opts.Mode, "mode", string(compendium.Move), "move or copy")
	flags.StringVar(&opts.Conflict, "conflict", string(compendium.ConflictSkip), "skip, overwrite or keepBoth")
	_ = cmd.MarkFlagRequired("to")
	cmd.MarkFlagsMutuallyExclusive("key", "from")
	cmd.MarkFlagsOneRequired("key", "from")

	return cmd
}

func (o *TransferOptions) parse() (compendium.DocumentKey, compendium.Selection, compendium.TransferMode, compendium.TransferConflictResolution, error) {
	var (
		sel  compendium.Selection
		zero compendium.DocumentKey
	)
	target, err := compendium.ParseDocumentPath(o.To)
	if err != nil {
		return zero, nil, "", "", err
	}
	mode, err := compendium.ParseTransferMode(o.Mode)
	if err != nil {
		return zero, nil, "", "", err
	}
	cr, err := compendium.ParseTransferConflictResolution(o.Conflict)
	if err != nil {
		return zero, nil, "", "", err
	}

	if o.From != "" {
		from, err := compendium.ParseDocumentPath(o.From)
		if err != nil {
			return zero, nil, "", "", err
		}
		sel = compendium.Query{Request: compendium.FetchRequest{Filters: compendium.Filters{Source: &from}}}
	} else if len(o.Keys) == 1 {
		sel = compendium.SingleKey{Key: o.Keys[0]}
	} else {
		sel = compendium.MultipleKeys{Keys: o.Keys}
	}
	return target, sel, mode, cr, nil
}
