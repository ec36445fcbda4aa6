package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/store"
	"github.com/spf13/cobra"
)

var (
	showJSON   bool
	showDelete bool
)

var showCmd = &cobra.Command{
	Use:   "show <contract-id>",
	Short: "Show a contract snapshot from the store",
	Long: `Read the snapshot written by 'fetch --save' or 'serve --save' from
Redis. The Seal API is not contacted. --delete removes the snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the snapshot as JSON")
	showCmd.Flags().BoolVar(&showDelete, "delete", false, "delete the snapshot")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rdb, err := newRedis(ctx)
	if err != nil {
		return err
	}
	defer rdb.Close()

	st := store.New(rdb, cfg.Redis.TTL)

	if showDelete {
		if err := st.Delete(ctx, id); err != nil {
			return err
		}
		printOK(out, id, "snapshot deleted")
		return nil
	}

	snap, err := st.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no snapshot for %s\nRun 'seal-preview fetch --save %s' first.", id, id)
	}
	if err != nil {
		return err
	}

	if showJSON {
		return writeJSON(out, snap.Result())
	}

	printResult(out, id, snap.Result())
	printInfo(out, "stored", snap.StoredAt.Local().Format(time.RFC3339))
	return nil
}
