package cli

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/seal-preview/pkg/async"
	"github.com/Sternrassler/seal-preview/pkg/store"
	"github.com/spf13/cobra"
)

var (
	fetchJSON bool
	fetchSave bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <contract-id>",
	Short: "Fetch the preview and metadata of a contract in parallel",
	Long: `Fetch the rendered preview and every metadata page of a contract
concurrently. Both must succeed; otherwise each failed part is reported.

With --save the result is also written to the Redis snapshot store.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the result as JSON")
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "write the result to the snapshot store")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := cmd.Context()

	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.FetchAll(ctx, id)
	if err != nil {
		var joinErr *async.JoinError
		if errors.As(err, &joinErr) {
			printJoinFailures(cmd.ErrOrStderr(), joinErr)
			return fmt.Errorf("fetch %s failed", id)
		}
		return err
	}

	if fetchSave {
		rdb, err := newRedis(ctx)
		if err != nil {
			return err
		}
		defer rdb.Close()

		if err := store.New(rdb, cfg.Redis.TTL).Save(ctx, id, res); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if fetchJSON {
		return writeJSON(out, res)
	}

	printResult(out, id, res)
	if fetchSave {
		printOK(out, "store", "snapshot saved")
	}
	return nil
}
