package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newReQuestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "re-quest <assignment_id>...",
		Short: "Clear quest state along assignment chains and re-trigger them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("assignment id must be numeric: %q", arg)
				}
				ids = append(ids, id)
			}

			body := map[string]any{"assignment_ids": ids}
			if _, err := client.Post("/api/v1/assignments/re-quest", body); err != nil {
				return fmt.Errorf("re-quest: %w", err)
			}

			fmt.Printf("Re-quest triggered for %d assignment(s).\n", len(ids))
			return nil
		},
	}
}
