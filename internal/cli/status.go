package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show restore progress and lock state",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		progress, err := services.BackupService.Status()
		if err != nil {
			return err
		}

		fmt.Printf("Status: %s\n", progress.Status)
		if progress.Status == domain.RestoreStatusInProgress && progress.Total > 0 {
			fmt.Printf("Progress: %d/%d statements\n", progress.Current, progress.Total)
		}
		if progress.Message != "" {
			fmt.Printf("Message: %s\n", progress.Message)
		}
		if progress.WarningsCount > 0 {
			fmt.Printf("Warnings: %d\n", progress.WarningsCount)
		}
		if progress.IsLocked {
			fmt.Printf("Lock: held by operation '%s'\n", progress.LockOperation)
		} else {
			fmt.Println("Lock: free")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
