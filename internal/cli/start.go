package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <assignment_id>",
		Short: "Trigger an assignment now, bypassing its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseUint(args[0], 10, 64); err != nil {
				return fmt.Errorf("assignment id must be numeric: %q", args[0])
			}

			if _, err := client.Post("/api/v1/assignments/"+args[0]+"/start", nil); err != nil {
				return fmt.Errorf("start assignment: %w", err)
			}

			fmt.Printf("Assignment %s triggered.\n", args[0])
			return nil
		},
	}
}

func newStartGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-group <name>",
		Short: "Trigger every assignment in a group now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/assignment-groups/"+args[0]+"/start", nil); err != nil {
				return fmt.Errorf("start assignment group: %w", err)
			}

			fmt.Printf("Assignment group %s triggered.\n", args[0])
			return nil
		},
	}
}
