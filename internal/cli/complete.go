package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <instance>",
		Short: "Report an instance as completed, firing completion-driven rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/instances/"+args[0]+"/complete", nil); err != nil {
				return fmt.Errorf("complete instance: %w", err)
			}

			fmt.Printf("Instance %s marked complete.\n", args[0])
			return nil
		},
	}
}
