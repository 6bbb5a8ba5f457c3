package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage named datasets",
	Long:  `List registered datasets and upload new ones from CSV files.`,
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered datasets",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewStatClient(viper.GetString("url"))

		datasets, err := client.ListDatasets()
		if err != nil {
			cmd.Printf("Error fetching datasets: %s\n", err)
			os.Exit(1)
		}

		if len(datasets) == 0 {
			cmd.Println("No datasets registered.")
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tROWS\tCOLUMNS")
		for _, d := range datasets {
			cols := ""
			for i, c := range d.Columns {
				if i > 0 {
					cols += ", "
				}
				cols += c
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", d.Name, d.Rows, cols)
		}
		w.Flush()
	},
}

var datasetsUploadCmd = &cobra.Command{
	Use:   "upload [name] [file]",
	Short: "Upload a CSV file as a named dataset",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		name, path := args[0], args[1]
		client := NewStatClient(viper.GetString("url"))

		resp, err := client.UploadDataset(name, path)
		if err != nil {
			cmd.Printf("Error uploading dataset: %s\n", err)
			os.Exit(1)
		}

		cmd.Printf("✓ Dataset %q registered (%d rows, %d columns)\n", resp.Name, resp.Rows, len(resp.Columns))
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsUploadCmd)
}
