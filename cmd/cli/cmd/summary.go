package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [job_id]",
	Short: "Get the reduced summary of a finished job",
	Long: `Fetch the orchestrator-facing summary of a finished job: headline numbers,
labels, small tables, and the interpretation text. The summary is only
available once the job reached a terminal state.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID := args[0]
		client := NewStatClient(viper.GetString("url"))

		summary, err := client.GetSummary(jobID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Request failed: %v\n", err)
			}
			os.Exit(1)
		}

		cmd.Printf("%sSummary for %s%s\n", colorBold, summary.Tool, colorReset)
		cmd.Println("──────────────────────────────")

		if len(summary.Labels) > 0 {
			keys := make([]string, 0, len(summary.Labels))
			for k := range summary.Labels {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				cmd.Printf("%s%s:%s %s\n", colorDim, k, colorReset, summary.Labels[k])
			}
		}

		if len(summary.Stats) > 0 {
			keys := make([]string, 0, len(summary.Stats))
			for k := range summary.Stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				cmd.Printf("%s%s:%s %g\n", colorDim, k, colorReset, summary.Stats[k])
			}
		}

		for _, table := range summary.Tables {
			cmd.Printf("\n%s%s%s\n", colorBold, table.Name, colorReset)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			for i, col := range table.Columns {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, col)
			}
			fmt.Fprintln(w)
			for _, row := range table.Rows {
				for i, cell := range row {
					if i > 0 {
						fmt.Fprint(w, "\t")
					}
					fmt.Fprintf(w, "%v", cell)
				}
				fmt.Fprintln(w)
			}
			w.Flush()
		}

		if summary.Text != "" {
			cmd.Printf("\n%s\n", summary.Text)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
