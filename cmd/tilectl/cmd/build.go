package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"tileforge/internal/catalog"
	"tileforge/internal/config"
	"tileforge/internal/orchestrator"
	"tileforge/internal/region"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Submit build jobs for the tiles a region still needs",
	Long: `Compute the covering tile set for a region, subtract the tiles that are
already complete in the object store, and submit one build job per missing
tile. Re-running the same build after all jobs finished submits nothing.

The region is inline WKT or a path to a .wkt/.txt, .json/.geojson, or .shp
file. Coordinates in another CRS are reprojected with --epsg.

WARNING: do not run a build while jobs for the same job code are still in
flight. Nothing detects an in-progress tile, so it would be submitted again
and two workers would write the same tile concurrently. Wait for the
previous submission to drain first.

Example:
  tilectl build --region brazil.geojson --job-code brazil01 --bucket data --prefix gedi/v2
  tilectl build --region "POLYGON((-64 -10,-61 -10,-61 1,-64 1,-64 -10))" --job-code brazil01 --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		regionSrc, _ := flags.GetString("region")
		epsg, _ := flags.GetInt("epsg")
		jobCode, _ := flags.GetString("job-code")
		dryRun, _ := flags.GetBool("dry-run")
		test, _ := flags.GetBool("test")
		quality, _ := flags.GetBool("quality")
		startYear, _ := flags.GetInt("start-year")
		endYear, _ := flags.GetInt("end-year")

		if regionSrc == "" {
			cmd.Println("Error: --region is required")
			return
		}
		if jobCode == "" {
			cmd.Println("Error: --job-code is required")
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

		envCfg, err := config.Load()
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		if startYear == 0 {
			startYear = envCfg.StartYear
		}
		if endYear == 0 {
			endYear = envCfg.EndYear
		}

		bucket := viper.GetString("bucket")
		st, err := newObjectStore(bucket)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		prefix := viper.GetString("prefix")

		var sub orchestrator.Submitter
		if !dryRun {
			client, err := newJobsClient()
			if err != nil {
				cmd.Printf("Error: %v\n", err)
				return
			}
			sub = client
		}

		o, err := orchestrator.New(sub, catalog.New(st, prefix), orchestrator.Config{
			Bucket:      bucket,
			Prefix:      prefix,
			JobCode:     jobCode,
			Test:        test,
			Quality:     quality,
			StartYear:   startYear,
			EndYear:     endYear,
			DryRun:      dryRun,
			SubmitRate:  rate.Limit(envCfg.SubmitRate),
			SubmitBurst: envCfg.SubmitBurst,
		}, buildLogger())
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		report, err := o.Run(cmd.Context(), g)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		cmd.Printf("Required: %d tiles\n", len(report.Required))
		cmd.Printf("Complete: %d tiles\n", len(report.Complete))
		cmd.Printf("Missing:  %d tiles\n", len(report.Missing))
		if dryRun {
			cmd.Println("Dry run: nothing submitted. Missing tiles:")
			for _, id := range report.Missing {
				cmd.Printf("  %s\n", id)
			}
			return
		}
		cmd.Printf("✓ Submitted %d jobs (job code %s)\n", len(report.Submitted), jobCode)
		if len(report.Failed) > 0 {
			cmd.Printf("✗ %d submissions failed; re-run to retry:\n", len(report.Failed))
			for _, id := range report.Failed {
				cmd.Printf("  %s\n", id)
			}
		}
	},
}

func init() {
	flags := buildCmd.Flags()
	flags.StringP("region", "r", "", "Region as inline WKT or a path to a WKT/GeoJSON/shapefile (required)")
	flags.Int("epsg", region.CanonicalEPSG, "EPSG code of the region's coordinates")
	flags.StringP("job-code", "j", "", "Short code naming this build campaign (required)")
	flags.Bool("dry-run", false, "Report the plan without submitting jobs")
	flags.Bool("test", false, "Submit test jobs that read only a couple of granules")
	flags.Bool("quality", false, "Apply the standard quality filter in the workers")
	flags.Int("start-year", 0, "First year to build (default from TILEFORGE_START_YEAR)")
	flags.Int("end-year", 0, "Last year to build (default: current year)")

	rootCmd.AddCommand(buildCmd)
}
