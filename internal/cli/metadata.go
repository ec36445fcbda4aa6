package cli

import (
	"github.com/spf13/cobra"
)

var (
	metadataJSON bool
	metadataRaw  bool
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <contract-id>",
	Short: "Fetch and normalize the metadata of a contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetadata,
}

func init() {
	metadataCmd.Flags().BoolVar(&metadataJSON, "json", false, "print as JSON")
	metadataCmd.Flags().BoolVar(&metadataRaw, "raw", false, "print the groups as returned by the API (implies --json)")
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if metadataRaw {
		groups, err := c.MetadataGroups(ctx, id)
		if err != nil {
			return err
		}
		return writeJSON(out, groups)
	}

	idx, err := c.Metadata(ctx, id)
	if err != nil {
		return err
	}
	if metadataJSON {
		return writeJSON(out, idx)
	}

	printSection(out, "Metadata "+id)
	printAnnotations(out, idx)
	printAnnotationSummary(out, idx)
	return nil
}
