package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tileforge/internal/grid"
	"tileforge/internal/layout"
)

var removeCmd = &cobra.Command{
	Use:   "remove [tile_id...]",
	Short: "Delete a tile's data, metadata, and checkpoint",
	Long: `Delete everything the store holds for the given tiles so the next build
rebuilds them from scratch. The metadata entry goes first: the moment it is
gone the tile is no longer complete, so a crash mid-removal leaves the tile
rebuildable rather than half-deleted but still marked done.

Example:
  tilectl remove N01_W064 --bucket data --prefix gedi/v2 --yes`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			cmd.Println("Refusing to delete without --yes")
			return
		}

		for _, id := range args {
			if _, err := grid.ParseID(id); err != nil {
				cmd.Printf("Error: %v\n", err)
				return
			}
		}

		st, err := newObjectStore(viper.GetString("bucket"))
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		prefix := viper.GetString("prefix")
		ctx := cmd.Context()

		for _, id := range args {
			if err := st.Delete(ctx, layout.MetadataObject(prefix, id)); err != nil {
				cmd.Printf("Error: delete metadata for %s: %v\n", id, err)
				return
			}
			keys, err := st.List(ctx, layout.TileDataPrefix(prefix, id))
			if err != nil {
				cmd.Printf("Error: list data for %s: %v\n", id, err)
				return
			}
			for _, key := range keys {
				if err := st.Delete(ctx, key); err != nil {
					cmd.Printf("Error: delete %s: %v\n", key, err)
					return
				}
			}
			if err := st.Delete(ctx, layout.CheckpointObject(prefix, id)); err != nil {
				cmd.Printf("Error: delete checkpoint for %s: %v\n", id, err)
				return
			}
			cmd.Printf("✓ Removed %s (%d data objects)\n", id, len(keys))
		}
	},
}

func init() {
	removeCmd.Flags().Bool("yes", false, "Confirm the deletion")

	rootCmd.AddCommand(removeCmd)
}
