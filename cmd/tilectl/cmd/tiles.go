package cmd

import (
	"github.com/spf13/cobra"

	"tileforge/internal/region"
	"tileforge/internal/selector"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "List the tiles whose cells a region touches",
	Long: `Print the covering tile set for a region, one tile ID per line. This is
the exact set a build would consider required; it needs no object store or
job service access.

Example:
  tilectl tiles --region brazil.geojson
  tilectl tiles --region utm_zone.shp --epsg 32722`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		regionSrc, _ := flags.GetString("region")
		epsg, _ := flags.GetInt("epsg")

		if regionSrc == "" {
			cmd.Println("Error: --region is required")
			return
		}

		g, err := region.Load(regionSrc)
		if err != nil {
			cmd.Printf("Error: failed to load region: %v\n", err)
			return
		}
		if epsg != region.CanonicalEPSG {
			if g, err = region.Reproject(g, epsg); err != nil {
				cmd.Printf("Error: failed to reproject region: %v\n", err)
				return
			}
		}

		ids, err := selector.CoveringIDs(g)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		for _, id := range ids {
			cmd.Println(id)
		}
		cmd.Printf("%d tiles\n", len(ids))
	},
}

func init() {
	flags := tilesCmd.Flags()
	flags.StringP("region", "r", "", "Region as inline WKT or a path to a WKT/GeoJSON/shapefile (required)")
	flags.Int("epsg", region.CanonicalEPSG, "EPSG code of the region's coordinates")

	rootCmd.AddCommand(tilesCmd)
}
