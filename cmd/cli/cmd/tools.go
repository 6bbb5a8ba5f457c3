package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered analysis tools",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewStatClient(viper.GetString("url"))

		tools, err := client.ListTools()
		if err != nil {
			cmd.Printf("Error fetching tools: %s\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, t := range tools {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
