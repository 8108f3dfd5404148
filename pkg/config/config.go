package config

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultConfigType = "json"
)

var (
	ErrInvalidDirectory  = errors.New("invalid directory path")
	ErrMissingConfigName = errors.New("config name not specified")
)

type Manager struct {
	App         string
	EnvPrefix   string
	Path        string
	Name        string
	WriteConfig bool

	Viper *viper.Viper

	mu sync.RWMutex
}

// New initializes the configuration settings.
// It sets up the name, type, and path for the configuration file. An empty
// path means ~/.{app}.
func New(app, path, name, envPrefix string, writeConfig bool) (*Manager, error) {
	if len(app) == 0 {
		return nil, ErrMissingConfigName
	}

	v := viper.New()
	v.SetConfigType(DefaultConfigType)
	var err error

	// Path
	if len(path) == 0 {
		path, err = os.UserHomeDir()
		if err != nil {
			path = os.TempDir()
		}
		path += string(os.PathSeparator) + "." + app
	}
	if err := PrepareDir(path); err != nil {
		return nil, err
	}
	v.AddConfigPath(path)

	// Name
	if len(name) == 0 {
		name = app
	}
	v.SetConfigName(name)

	// Env
	if len(envPrefix) != 0 {
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	}

	return &Manager{
		App:         app,
		EnvPrefix:   envPrefix,
		Path:        path,
		Name:        name,
		Viper:       v,
		WriteConfig: writeConfig,
	}, nil
}

// Load reads the config file, if any, and unmarshals into conf.
// A missing file is not an error; defaults, env and flags still apply.
func (c *Manager) Load(conf interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		log.Debug().Str("path", c.Path).Msg("config file not found, using defaults")
		if c.WriteConfig {
			if err := c.Viper.SafeWriteConfig(); err != nil {
				return err
			}
		}
	}
	return c.Viper.Unmarshal(conf, decoderConfig())
}

// LoadFile loads the configuration from a specified file.
func (c *Manager) LoadFile(file string, conf interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Viper.SetConfigFile(file)
	if err := c.Viper.ReadInConfig(); err != nil {
		return err
	}
	return c.Viper.Unmarshal(conf, decoderConfig())
}

// SetConfig sets a configuration key to a specified value.
// It also writes the updated configuration back to the file.
func (c *Manager) SetConfig(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Viper.Set(key, value)
	if c.WriteConfig {
		if err := c.Viper.WriteConfig(); err != nil {
			return err
		}
	}
	return nil
}

// GetConfig retrieves all configuration settings as a map.
func (c *Manager) GetConfig() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Viper.AllSettings()
}

// Watch re-reads conf whenever the config file changes and calls onChange
// with the triggering event.
func (c *Manager) Watch(conf interface{}, onChange func(event fsnotify.Event)) {
	c.Viper.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		c.mu.Lock()
		err := c.Viper.Unmarshal(conf, decoderConfig())
		c.mu.Unlock()
		if err != nil {
			log.Err(err).Str("file", event.Name).Msg("reload config failed")
			return
		}
		log.Info().Str("file", event.Name).Msg("config reloaded")
		if onChange != nil {
			onChange(event)
		}
	})
	c.Viper.WatchConfig()
}

// SetDefaults registers every `mapstructure` key of conf with viper so env
// overrides are seen by Unmarshal, then applies defaults on top.
func SetDefaults(v *viper.Viper, conf interface{}, defaults map[string]any) {
	t := reflect.TypeOf(conf)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			key, _, _ := strings.Cut(t.Field(i).Tag.Get("mapstructure"), ",")
			if key == "" || key == "-" {
				continue
			}
			v.SetDefault(key, reflect.Zero(t.Field(i).Type).Interface())
		}
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// PrepareDir ensures that the specified directory path exists.
// If the directory does not exist, it attempts to create it.
func PrepareDir(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	} else if !stat.IsDir() {
		log.Debug().Msgf("%s is not a directory", path)
		return ErrInvalidDirectory
	}
	return nil
}
