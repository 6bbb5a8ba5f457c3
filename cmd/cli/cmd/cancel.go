package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [job_id]",
	Short: "Request cancellation of a job",
	Long: `Request cooperative cancellation of a pending or running job. A pending job
is cancelled immediately; a running job finishes at its next cancellation
checkpoint. Jobs that already finished are not affected.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID := args[0]
		client := NewStatClient(viper.GetString("url"))

		resp, err := client.CancelJob(jobID)
		if err != nil {
			cmd.Printf("Error cancelling job: %s\n", err)
			os.Exit(1)
		}

		if resp.Cancelled {
			cmd.Printf("✓ Cancellation requested for job %s\n", jobID)
		} else {
			cmd.Printf("Job %s already finished; nothing to cancel\n", jobID)
		}
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
