package cli

import (
	"log/slog"
	"os"

	"github.com/me/patrol/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking PATROL_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("PATROL_SERVER"); s != "" {
		return s
	}
	return "http://localhost:9000"
}

// NewRootCmd creates the root cobra command for the patrol CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "patrol",
		Short: "Patrol — device fleet assignment scheduler",
		Long:  "Patrol manages scheduling rules that move scanning devices between work instances.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Patrol server URL (or PATROL_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newListCmd(),
		newDevicesCmd(),
		newStartCmd(),
		newStartGroupCmd(),
		newReQuestCmd(),
		newCompleteCmd(),
		newStatusCmd(),
	)

	return root
}
