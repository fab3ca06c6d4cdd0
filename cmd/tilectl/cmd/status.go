package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tileforge/internal/catalog"
	"tileforge/internal/region"
	"tileforge/internal/selector"
	"tileforge/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [tile_id...]",
	Short: "Report build state for tiles or a whole region",
	Long: `Report each tile's build state as recorded in the object store:

  complete     the tile's metadata entry exists
  in_progress  a checkpoint exists but no metadata entry
  not_started  neither exists

With tile IDs as arguments, the state of each is printed. With --region,
the whole covering set is summarized and the unfinished tiles listed.

With --job-code and a job service URL, the service's job listing for that
code is printed as well. That listing is best-effort: the service may return
stale or incomplete results, so never treat it as proof that no jobs are in
flight.`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		regionSrc, _ := flags.GetString("region")
		epsg, _ := flags.GetInt("epsg")
		jobCode, _ := flags.GetString("job-code")

		if len(args) == 0 && regionSrc == "" {
			cmd.Println("Error: pass tile IDs or --region")
			return
		}

		st, err := newObjectStore(viper.GetString("bucket"))
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		cat := catalog.New(st, viper.GetString("prefix"))

		ids := args
		if regionSrc != "" {
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
			if ids, err = selector.CoveringIDs(g); err != nil {
				cmd.Printf("Error: %v\n", err)
				return
			}
		}

		counts := map[store.TileState]int{}
		var unfinished []string
		for _, id := range ids {
			state, err := cat.State(cmd.Context(), id)
			if err != nil {
				cmd.Printf("Error: state of %s: %v\n", id, err)
				return
			}
			counts[state]++
			if state != store.TileComplete {
				unfinished = append(unfinished, id)
			}
			if len(args) > 0 {
				cmd.Printf("%s  %s\n", id, state)
			}
		}

		if regionSrc != "" {
			cmd.Printf("Required:    %d tiles\n", len(ids))
			cmd.Printf("Complete:    %d\n", counts[store.TileComplete])
			cmd.Printf("In progress: %d\n", counts[store.TileInProgress])
			cmd.Printf("Not started: %d\n", counts[store.TileNotStarted])
			for _, id := range unfinished {
				cmd.Printf("  %s\n", id)
			}
		}

		if jobCode != "" {
			printJobs(cmd, jobCode)
		}
	},
}

// printJobs shows the job service's view of a job code. Informational only.
func printJobs(cmd *cobra.Command, jobCode string) {
	client, err := newJobsClient()
	if err != nil {
		cmd.Printf("Error: %v\n", err)
		return
	}
	jobList, err := client.List(cmd.Context(), jobCode)
	if err != nil {
		cmd.Printf("Job listing unavailable: %v\n", err)
		return
	}
	cmd.Printf("Jobs for %s (best-effort listing):\n", jobCode)
	for _, j := range jobList {
		if j.Error != "" {
			cmd.Printf("  %s  %s  %s  (%s)\n", j.JobID, j.TileID, j.Status, j.Error)
			continue
		}
		cmd.Printf("  %s  %s  %s\n", j.JobID, j.TileID, j.Status)
	}
}

func init() {
	flags := statusCmd.Flags()
	flags.StringP("region", "r", "", "Region as inline WKT or a path to a WKT/GeoJSON/shapefile")
	flags.Int("epsg", region.CanonicalEPSG, "EPSG code of the region's coordinates")
	flags.StringP("job-code", "j", "", "Also list the job service's jobs for this code")

	rootCmd.AddCommand(statusCmd)
}
