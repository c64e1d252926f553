package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var backupNoCompress bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
	Long:  "Create, list and delete backup artifacts",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		artifact, err := services.BackupService.Create(cmd.Context(), !backupNoCompress)
		if err != nil {
			return err
		}

		fmt.Printf("Backup created: %s (%.2f MB)\n", artifact.Filename, artifact.SizeMB)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		artifacts, err := services.BackupService.List()
		if err != nil {
			return err
		}

		if len(artifacts) == 0 {
			fmt.Println("No backups found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILENAME\tSIZE (MB)\tCREATED AT\tSAFETY")
		for _, a := range artifacts {
			safety := ""
			if a.Safety {
				safety = "yes"
			}
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n",
				a.Filename,
				a.SizeMB,
				a.CreatedAt.Format("2006-01-02 15:04:05"),
				safety,
			)
		}
		w.Flush()

		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		fmt.Printf("Are you sure you want to delete backup '%s'? (yes/no): ", filename)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("Cancelled")
			return nil
		}

		if err := services.BackupService.Delete(filename); err != nil {
			return err
		}

		fmt.Printf("Backup '%s' deleted\n", filename)
		return nil
	},
}

func init() {
	backupCreateCmd.Flags().BoolVar(&backupNoCompress, "no-compress", false, "store the backup uncompressed")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	rootCmd.AddCommand(backupCmd)
}
