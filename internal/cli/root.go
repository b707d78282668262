package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the complete command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	root := &cobra.Command{
		Use:           "qrdinectl",
		Short:         "Inspect the venue catalog and table QR codes.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(newDecodeCommand(deps))
	root.AddCommand(newLinkCommand())
	root.AddCommand(newVenuesCommand(deps))
	root.AddCommand(newTablesCommand(deps))
	root.AddCommand(newMenuCommand(deps))
	return root
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func requireCatalog(deps Dependencies) error {
	if deps.Catalog == nil {
		return fmt.Errorf("no catalog configured")
	}
	return nil
}
