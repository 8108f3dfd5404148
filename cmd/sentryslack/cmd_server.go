package sentryslack

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/sentry-slack/internal/sentryslack"
)

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "server address (default 127.0.0.1:5040)")
	serverCmd.Flags().StringVarP(&serverConfigDir, "config-dir", "c", "", "config dir")
	serverCmd.Flags().StringVar(&serverDBPath, "db", "", "sqlite database path")
	serverCmd.Flags().StringVar(&serverBaseURL, "base-url", "", "base url used for issue and rule links")
	serverCmd.Flags().StringVar(&serverRedisURL, "redis", "", "redis url for the tag label cache")
}

var (
	serverAddr      string
	serverConfigDir string
	serverDBPath    string
	serverBaseURL   string
	serverRedisURL  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		cmdConf := make(map[string]any)
		for key, value := range map[string]string{
			"http_addr": serverAddr,
			"db_path":   serverDBPath,
			"base_url":  serverBaseURL,
			"redis_url": serverRedisURL,
		} {
			if value != "" {
				cmdConf[key] = value
			}
		}
		if Debug {
			cmdConf["debug"] = true
		}

		m := sentryslack.New()
		if err := m.CommandHTTPServer(serverConfigDir, cmdConf); err != nil {
			log.Err(err).Msg("failed to start server")
			return
		}
	},
}
