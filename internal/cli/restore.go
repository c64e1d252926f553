package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore <filename>",
	Short: "Restore the database from a backup",
	Long: `Restore the database from a backup artifact in the backup directory.

The current database content is replaced. For relational stores a safety
backup is created first; if that fails, nothing is touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if !restoreYes {
			fmt.Printf("This will REPLACE the current database content with '%s'. Continue? (yes/no): ", filename)
			var confirm string
			fmt.Scanln(&confirm)
			if confirm != "yes" {
				fmt.Println("Cancelled")
				return nil
			}
		}

		warnings, err := services.BackupService.Restore(cmd.Context(), filename)
		if err != nil {
			return err
		}

		if status, serr := services.BackupService.Status(); serr == nil && status.SafetyBackupCreated {
			fmt.Printf("Safety backup created: %s\n", status.SafetyBackupFilename)
		}

		if len(warnings) > 0 {
			fmt.Printf("Restore completed with %d warning(s):\n", len(warnings))
			for _, w := range warnings {
				fmt.Printf("  statement %d/%d: %s\n", w.StatementIndex+1, w.Total, w.Error)
			}
		} else {
			fmt.Println("Restore completed")
		}

		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(restoreCmd)
}
