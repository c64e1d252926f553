package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of the backing database",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		stats, err := services.BackupService.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Store: %s\n", stats.StoreKind)

		if stats.StoreKind == "neo4j" {
			fmt.Printf("Nodes: %d\n", stats.NodeCount)
			fmt.Printf("Relationships: %d\n", stats.RelationshipCount)
			if len(stats.Labels) > 0 {
				fmt.Printf("Labels: %v\n", stats.Labels)
			}
			if len(stats.RelationshipTypes) > 0 {
				fmt.Printf("Relationship types: %v\n", stats.RelationshipTypes)
			}
			return nil
		}

		if len(stats.Tables) == 0 {
			fmt.Println("No tables found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tROWS\tSIZE (BYTES)")
		for _, t := range stats.Tables {
			fmt.Fprintf(w, "%s\t%d\t%d\n", t.Name, t.RowCount, t.SizeBytes)
		}
		w.Flush()
		fmt.Printf("Total size: %d bytes\n", stats.TotalSizeBytes)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
