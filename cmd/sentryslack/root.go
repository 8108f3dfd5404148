package sentryslack

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	// windows only
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "debug")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sentry-slack",
	Short:   "Post Sentry notifications to Slack",
	Long:    `sentry-slack formats error notifications and posts them to Slack incoming webhooks.`,
	Example: `sentry-slack server -a 127.0.0.1:5040`,
	Args:    cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}
