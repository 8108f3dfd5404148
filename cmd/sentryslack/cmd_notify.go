package sentryslack

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/sentryslack"
	"github.com/sjzar/sentry-slack/internal/slack"
)

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.Flags().StringVarP(&notifyFile, "file", "f", "", "notification json file")
	notifyCmd.Flags().StringVar(&notifyOpts.Webhook, "webhook", "", "slack webhook url")
	notifyCmd.Flags().StringVar(&notifyOpts.Username, "username", slack.DefaultUsername, "bot name")
	notifyCmd.Flags().StringVar(&notifyOpts.IconURL, "icon-url", "", "bot icon url")
	notifyCmd.Flags().StringVar(&notifyOpts.Channel, "channel", "", "#channel or @user")
	notifyCmd.Flags().BoolVar(&notifyOpts.IncludeTags, "include-tags", false, "include tags")
	notifyCmd.Flags().BoolVar(&notifyOpts.IncludeRules, "include-rules", false, "include triggering rules")
	notifyCmd.Flags().StringVar(&notifyBaseURL, "base-url", "http://localhost:9000", "base url used for issue and rule links")
	notifyCmd.Flags().DurationVar(&notifyTimeout, "timeout", 10*time.Second, "webhook timeout")
	notifyCmd.MarkFlagRequired("file")
	notifyCmd.MarkFlagRequired("webhook")
}

var (
	notifyFile    string
	notifyOpts    slack.Options
	notifyBaseURL string
	notifyTimeout time.Duration
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send one notification to a webhook",
	Run: func(cmd *cobra.Command, args []string) {
		m := sentryslack.New()
		result, err := m.CommandNotify(notifyFile, notifyOpts, notifyBaseURL, notifyTimeout)
		if err != nil {
			log.Err(err).
				Str("type", errors.GetType(err)).
				Int("code", errors.GetCode(err)).
				AnErr("cause", errors.RootCause(err)).
				Msg("failed to send notification")
			os.Exit(exitCode(err))
		}
		if result == nil {
			fmt.Println("skipped: webhook not configured")
			return
		}
		fmt.Printf("sent: HTTP %d in %s\n", result.StatusCode, result.Duration.Round(time.Millisecond))
	},
}

// exitCode is 2 for bad input and 1 for delivery failures.
func exitCode(err error) int {
	switch errors.GetType(err) {
	case "":
		return 0
	case errors.ErrTypeValidation, errors.ErrTypeInvalidArg:
		return 2
	}
	return 1
}
