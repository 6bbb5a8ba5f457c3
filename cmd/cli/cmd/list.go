package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	Long: `List jobs in the ledger, newest first. The view can be narrowed to one or
more statuses with --status, e.g. --status running or --status failed,cancelled.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewStatClient(viper.GetString("url"))

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		jobs, err := client.ListJobs(status, limit, offset)
		if err != nil {
			cmd.Printf("Error fetching jobs: %s\n", err)
			os.Exit(1)
		}

		if len(jobs) == 0 {
			if offset > 0 {
				cmd.Println("No more jobs found.")
			} else {
				cmd.Println("No jobs found.")
			}
			return
		}

		// Print table
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "JOB ID\tTOOL\tSTATUS\tPROGRESS\tCREATED AT\tERROR")
		for _, j := range jobs {
			errMsg := ""
			if j.Error != nil {
				// Truncate long error messages for the table view
				errMsg = j.Error.Code + ": " + j.Error.Message
				if len(errMsg) > 50 {
					errMsg = errMsg[:47] + "..."
				}
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
				j.ID,
				j.Tool,
				j.Status,
				j.Progress*100,
				j.CreatedAt.Format(time.RFC3339),
				errMsg,
			)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("status", "s", "", "Filter by status (comma-separated)")
	listCmd.Flags().IntP("limit", "l", 20, "Number of jobs to list")
	listCmd.Flags().IntP("offset", "o", 0, "Offset for pagination")
}
