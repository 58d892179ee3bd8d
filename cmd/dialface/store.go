package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyuri/dialface/internal/store"
)

// store command
var storeCmd = &cobra.Command{
	Use:   "store <file>",
	Short: "List the blobs persisted in a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStore,
}

var storeKeyNames = map[uint32]string{
	store.KeyConfig: "config",
	store.KeyChrono: "chrono",
}

func runStore(cmd *cobra.Command, args []string) error {
	db, err := store.OpenSQLite(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := db.Keys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, k := range keys {
		blob, _, err := db.Load(k)
		if err != nil {
			return fmt.Errorf("load %#x: %w", k, err)
		}
		name := storeKeyNames[k]
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%#06x  %-6s  %d bytes\n", k, name, len(blob))
	}
	return nil
}
