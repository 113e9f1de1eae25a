package cli

import (
	"github.com/spf13/cobra"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Digest bool
}

type digestResult struct {
	Digest string `json:"digest"`
}

func (r digestResult) String() string { return r.Digest }

// canonicalDump prints as the canonical JSON it wraps.
type canonicalDump []byte

func (d canonicalDump) String() string               { return string(d) }
func (d canonicalDump) MarshalJSON() ([]byte, error) { return d, nil }

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every record, full-text row and index row as canonical JSON",
		Long: `Print every record, full-text row and index row as canonical JSON.

Two databases with the same content print the same bytes. --digest prints
only a SHA-256 digest of the dump.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withSession(rootOpts, func(cmd *cobra.Command, s *session, args []string) error {
			d, err := s.store.Dump(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Digest {
				digest, err := d.Digest()
				if err != nil {
					return err
				}
				return s.out.Success(digestResult{Digest: digest})
			}
			data, err := d.Canonical()
			if err != nil {
				return err
			}
			return s.out.Success(canonicalDump(data))
		}),
	}

	cmd.Flags().BoolVar(&opts.Digest, "digest", false, "print the dump digest only")

	return cmd
}
