package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/patrol/pkg/model"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assignment rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/assignments/")
			if err != nil {
				return fmt.Errorf("list assignments: %w", err)
			}

			var data []model.Assignment
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No assignments found.")
				return nil
			}

			fmt.Printf("%-6s  %-20s  %-20s  %-10s  %-12s  %s\n", "ID", "INSTANCE", "SOURCE", "TIME", "DATE", "ENABLED")
			fmt.Printf("%-6s  %-20s  %-20s  %-10s  %-12s  %s\n", "--", "--------", "------", "----", "----", "-------")
			for _, a := range data {
				fmt.Printf("%-6d  %-20s  %-20s  %-10s  %-12s  %t\n",
					a.ID, a.InstanceName, a.SourceInstanceName, formatTime(a.Time), a.Date, a.Enabled)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}

			return nil
		},
	}
}

// formatTime renders seconds-since-midnight as HH:MM:SS; zero means
// on-complete only.
func formatTime(sec uint32) string {
	if sec == 0 {
		return "on-complete"
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}
