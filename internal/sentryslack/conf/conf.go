package conf

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/pkg/config"
)

const (
	AppName          = "sentry-slack"
	ServerConfigName = "sentry-slack-server"
	EnvPrefix        = "SENTRY_SLACK"
	EnvConfigDir     = "SENTRY_SLACK_DIR"
)

// LoadServiceConfig 加载服务配置
// cmdConf holds flag values that override the config file and env.
func LoadServiceConfig(configPath string, cmdConf map[string]any) (*ServerConfig, *config.Manager, error) {

	if configPath == "" {
		configPath = os.Getenv(EnvConfigDir)
	}

	scm, err := config.New(AppName, configPath, ServerConfigName, EnvPrefix, false)
	if err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, nil, err
	}

	conf := &ServerConfig{}
	config.SetDefaults(scm.Viper, conf, ServerDefaults)

	for key, value := range cmdConf {
		scm.SetConfig(key, value)
	}

	if err := scm.Load(conf); err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, nil, err
	}
	conf.ConfigDir = scm.Path

	b, _ := json.Marshal(conf)
	log.Info().Msgf("server config: %s", string(b))

	return conf, scm, nil
}
