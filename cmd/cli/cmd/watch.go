package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statplane/pkg/api"
)

var watchCmd = &cobra.Command{
	Use:   "watch [job_id]",
	Short: "Stream live events for a job",
	Long: `Subscribe to the event stream of a job and print progress, log, and
completion events as they arrive. The command exits when the job reaches a
terminal state.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID := args[0]

		// Trap Ctrl+C to exit gracefully
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			<-sigChan
			os.Exit(0)
		}()

		client := NewStatClient(viper.GetString("url"))

		err := client.WatchEvents(jobID, func(event api.JobEvent) bool {
			switch event.Type {
			case "progress":
				cmd.Printf("%s[%3.0f%%]%s %s\n", colorCyan, event.Fraction*100, colorReset, event.Message)
			case "log":
				cmd.Printf("%s\n", event.Message)
			case "completed":
				cmd.Printf("%s %s\n", statusIcon(event.Status), colorizeStatus(event.Status))
				return false
			}
			return true
		})
		if err != nil {
			cmd.Printf("Error watching job: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
