package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
)

type realmList []compendium.Realm

func (l realmList) String() string {
	lines := make([]string, len(l))
	for i, r := range l {
		lines[i] = r.ID + "\t" + r.DisplayName
	}
	return strings.Join(lines, "\n")
}

type documentList []compendium.SourceDocument

func (l documentList) String() string {
	lines := make([]string, len(l))
	for i, d := range l {
		lines[i] = d.Key().Path() + "\t" + d.DisplayName
	}
	return strings.Join(lines, "\n")
}

type message string

func (m message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message string `json:"message"`
	}{string(m)})
}

// compendiumCommand wraps run with a session and a compendium that has its
// default resources.
func compendiumCommand(opts *RootOptions, run func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error) func(*cobra.Command, []string) error {
	return withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
		c, err := s.compendium(cmd.Context())
		if err != nil {
			return err
		}
		return run(cmd, s, c, args)
	})
}

// NewRealmCommand creates the realm command group.
func NewRealmCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realm",
		Short: "Manage realms",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List realms",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			realms, err := c.Realms(cmd.Context())
			if err != nil {
				return err
			}
			return s.out.Success(realmList(realms))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "create <id> <display-name>",
		Short:         "Create a realm",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			if err := c.CreateRealm(cmd.Context(), compendium.Realm{ID: args[0], DisplayName: args[1]}); err != nil {
				return err
			}
			return s.out.Success(message("created realm " + args[0]))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rename <id> <display-name>",
		Short:         "Change a realm's display name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			if err := c.UpdateRealm(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return s.out.Success(message("renamed realm " + args[0]))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rm <id>",
		Short:         "Remove an empty realm",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			if err := c.RemoveRealm(cmd.Context(), args[0]); err != nil {
				return err
			}
			return s.out.Success(message("removed realm " + args[0]))
		}),
	})

	return cmd
}

// DocumentUpdateOptions holds flags for document update.
type DocumentUpdateOptions struct {
	To   string
	Name string
}

// NewDocumentCommand creates the document command group.
func NewDocumentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document",
		Short: "Manage source documents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List source documents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			docs, err := c.Documents(cmd.Context())
			if err != nil {
				return err
			}
			return s.out.Success(documentList(docs))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "create <realm>/<document> <display-name>",
		Short:         "Create a source document in an existing realm",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			key, err := compendium.ParseDocumentPath(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid document", err)
			}
			d := compendium.SourceDocument{ID: key.DocumentID, RealmID: key.RealmID, DisplayName: args[1]}
			if err := c.CreateDocument(cmd.Context(), d); err != nil {
				return err
			}
			return s.out.Success(message("created document " + key.Path()))
		}),
	})

	update := &DocumentUpdateOptions{}
	updateCmd := &cobra.Command{
		Use:   "update <realm>/<document>",
		Short: "Rename a document or move it to a new id or realm",
		Long: `Rename a document or move it to a new id or realm. Its entries and
import jobs move with it, and references to moved entries are updated.
Built-in documents can be renamed but not moved.`,
		Example:       `  constructdb document update --db construct.db thirdparty/tome --to homebrew/tome --name "Tome (homebrew)"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			ctx := cmd.Context()
			from, err := compendium.ParseDocumentPath(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid document", err)
			}
			to := from
			if update.To != "" {
				if to, err = compendium.ParseDocumentPath(update.To); err != nil {
					return WrapExitError(ExitCommandError, "invalid --to", err)
				}
			}

			current, err := c.Document(ctx, from)
			if err != nil {
				return err
			}
			name := update.Name
			if name == "" && current != nil {
				name = current.DisplayName
			}

			d := compendium.SourceDocument{ID: to.DocumentID, RealmID: to.RealmID, DisplayName: name}
			if err := c.UpdateDocument(ctx, d, from); err != nil {
				return err
			}
			return s.out.Success(message("updated document " + to.Path()))
		}),
	}
	updateCmd.Flags().StringVar(&update.To, "to", "", "new <realm>/<document>")
	updateCmd.Flags().StringVar(&update.Name, "name", "", "new display name")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:           "rm <realm>/<document>",
		Short:         "Remove a document and all of its entries",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: compendiumCommand(opts, func(cmd *cobra.Command, s *session, c *compendium.Compendium, args []string) error {
			key, err := compendium.ParseDocumentPath(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid document", err)
			}
			n, err := c.RemoveDocument(cmd.Context(), key)
			if err != nil {
				return err
			}
			return s.out.Success(message(fmt.Sprintf("removed document %s and %d entries", key.Path(), n)))
		}),
	})

	return cmd
}
