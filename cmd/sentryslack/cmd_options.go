package sentryslack

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/sentry-slack/internal/slack"
)

func init() {
	rootCmd.AddCommand(optionsCmd)
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the plugin metadata and settings form",
	Run: func(cmd *cobra.Command, args []string) {
		b, err := json.MarshalIndent(slack.New(nil).Metadata(), "", "  ")
		if err != nil {
			log.Err(err).Msg("failed to encode metadata")
			return
		}
		fmt.Println(string(b))
	},
}
