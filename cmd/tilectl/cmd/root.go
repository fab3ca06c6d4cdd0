package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tileforge/internal/config"
	"tileforge/internal/jobs"
	"tileforge/internal/store"
	"tileforge/internal/store/local"
	"tileforge/internal/store/s3"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tilectl",
	Short: "Tilectl is a command line tool for building tile-partitioned datasets",
	Long: `tilectl is the command-line interface for the tileforge dataset builder.

Tileforge splits the globe into 1x1 degree tiles and builds each tile as an
independent job on the job service. The object store is the ledger: a tile
with a metadata entry is complete, and re-running a build submits jobs only
for the tiles that are still missing.

Common workflows:

  Preview which tiles a region needs:
    tilectl tiles --region region.geojson

  Plan a build without submitting anything:
    tilectl build --region region.geojson --job-code brazil01 --dry-run

  Submit the missing tiles:
    tilectl build --region region.geojson --job-code brazil01 --bucket data --prefix gedi/v2

  Inspect progress:
    tilectl status --region region.geojson --bucket data --prefix gedi/v2
    tilectl status N01_W064 --bucket data --prefix gedi/v2

Configuration:
  Set the job service endpoint and credentials via environment variables or a config file:
    TILEFORGE_JOB_SERVICE_URL      Job service endpoint
    TILEFORGE_JOB_SERVICE_TOKEN    API token for authentication
    TILEFORGE_S3_ENDPOINT          Object store endpoint
    TILEFORGE_S3_ACCESS_KEY        Object store access key
    TILEFORGE_S3_SECRET_KEY        Object store secret key`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".tilectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".tilectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "TILEFORGE_VARNAME"
	viper.SetEnvPrefix("TILEFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// newObjectStore opens the dataset's object store. The --local flag points
// at a directory store for development runs; otherwise the S3 connection
// comes from the environment.
func newObjectStore(bucket string) (store.ObjectStore, error) {
	if dir := viper.GetString("local"); dir != "" {
		return local.New(dir)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	s3cfg, err := cfg.S3()
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required (--bucket)")
	}
	return s3.New(s3cfg, bucket)
}

// buildLogger is the structured logger behind the human-readable command
// output. It writes to stderr so the command's own output stays clean; every
// invocation gets a fresh run ID for correlating its log lines.
func buildLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("run_id", uuid.NewString())
}

// newJobsClient builds the job service client from the url/token settings.
func newJobsClient() (*jobs.Client, error) {
	url := viper.GetString("url")
	if url == "" {
		return nil, fmt.Errorf("job service URL is required (--url flag or TILEFORGE_JOB_SERVICE_URL)")
	}
	return jobs.NewClient(url, viper.GetString("token")), nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tilectl.yaml)")

	rootCmd.PersistentFlags().String("url", "", "Job service URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API Token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().String("bucket", "", "Object store bucket holding the dataset")
	viper.BindPFlag("bucket", rootCmd.PersistentFlags().Lookup("bucket"))

	rootCmd.PersistentFlags().String("prefix", "", "Key prefix of the dataset inside the bucket")
	viper.BindPFlag("prefix", rootCmd.PersistentFlags().Lookup("prefix"))

	rootCmd.PersistentFlags().String("local", "", "Use a local directory store instead of S3 (development)")
	viper.BindPFlag("local", rootCmd.PersistentFlags().Lookup("local"))
}
