package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/patrol/pkg/model"
	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices and their current instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/devices/")
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}

			var data []model.Device
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No devices found.")
				return nil
			}

			fmt.Printf("%-36s  %-24s  %-20s  %s\n", "UUID", "INSTANCE", "HOST", "LAST SEEN")
			fmt.Printf("%-36s  %-24s  %-20s  %s\n", "----", "--------", "----", "---------")
			for _, d := range data {
				lastSeen := ""
				if d.LastSeen != nil {
					lastSeen = d.LastSeen.Format(time.RFC3339)
				}
				fmt.Printf("%-36s  %-24s  %-20s  %s\n", d.UUID, d.InstanceName, d.LastHost, lastSeen)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}

			return nil
		},
	}
}
