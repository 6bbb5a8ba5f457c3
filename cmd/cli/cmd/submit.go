package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statplane/pkg/api"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an analysis job",
	Long: `Submit a named analysis tool for asynchronous execution.

The job ID is printed immediately; use 'statctl status' or 'statctl watch'
to follow the job afterwards.

Example:
  statctl submit --tool calculate_mean --params '{"dataset":"heights","column":"cm"}'
  statctl submit --tool generate_random_data --params '{"name":"noise","rows":1000}' --timeout 120`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		toolName, _ := flags.GetString("tool")
		paramsJSON, _ := flags.GetString("params")
		timeout, _ := flags.GetInt("timeout")

		url := viper.GetString("url")

		if toolName == "" {
			cmd.Println("Error: --tool is required")
			return
		}

		params := map[string]any{}
		if paramsJSON != "" {
			if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
				cmd.Printf("Error: --params is not valid JSON: %v\n", err)
				return
			}
		}
		if timeout > 0 {
			params["_timeout_sec"] = timeout
		}

		client := NewStatClient(url)
		result, err := client.SubmitJob(api.SubmitJobRequest{
			Tool:   toolName,
			Params: params,
		})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Submit failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Submit failed: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Job submitted!\nJob ID: %s\n", result.JobID)
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("tool", "t", "", "Name of the analysis tool to run (required)")
	flags.StringP("params", "p", "", "Tool parameters as a JSON object")
	flags.Int("timeout", 0, "Per-job timeout in seconds (optional)")

	rootCmd.AddCommand(submitCmd)
}
