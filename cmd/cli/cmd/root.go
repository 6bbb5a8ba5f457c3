package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "statctl",
	Short: "Statctl is a command line tool for interacting with the statplane daemon",
	Long: `statctl is the command-line interface for the statplane asynchronous
statistical job engine.

Statplane runs named statistical tools (descriptive stats, hypothesis tests,
regression, data generation) as asynchronous jobs. Submission returns a job ID
immediately; progress, results, and summaries are fetched separately.

Common workflows:

  Submit an analysis:
    statctl submit --tool calculate_mean --params '{"dataset":"heights","column":"cm"}'

  Check job status:
    statctl status <job-id>

  Fetch the full result once the job succeeded:
    statctl status <job-id> --result

  Follow live progress events:
    statctl watch <job-id>

  Upload a CSV dataset:
    statctl datasets upload heights ./heights.csv

Configuration:
  Set the API endpoint via environment variables or a config file:
    STATPLANE_URL    API endpoint (default: http://localhost:8451)`,
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

		// Search config in home directory with name ".statctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".statctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "STATPLANE_VARNAME"
	viper.SetEnvPrefix("STATPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.statctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8451", "Statplane daemon URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
