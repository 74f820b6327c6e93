package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// AppConfig carries every knob the CLI needs to talk to one camera and
// to run a capture. Defaults match a camera reachable over its own WiFi
// access point.
type AppConfig struct {
	CameraHost          string `mapstructure:"camera_host"`
	CameraPort          int    `mapstructure:"camera_port"`
	StreamPort          int    `mapstructure:"stream_port"`
	OutputDir           string `mapstructure:"output_dir"`
	CommandTimeoutMs    int    `mapstructure:"command_timeout_ms"`
	IdleTimeoutMs       int    `mapstructure:"idle_timeout_ms"`
	KeepAliveIntervalMs int    `mapstructure:"keep_alive_interval_ms"`
	KeepAliveErrorCount int    `mapstructure:"keep_alive_error_count"`
	MqttBroker          string `mapstructure:"mqtt_broker"`
	MqttTopic           string `mapstructure:"mqtt_topic"`
	ClientUuid          string `mapstructure:"client_uuid"`
	LogLevel            string `mapstructure:"log_level"`
}

func LoadAppConfig(configPath string) (*AppConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v, err := initViper(configPath, filepath.Join(home, ".goprocam"), "cli_config", "toml", "GOPROCAM_CLI")
	if err != nil {
		return nil, err
	}

	v.SetDefault("camera_host", "10.5.5.9")
	v.SetDefault("camera_port", 8080)
	v.SetDefault("stream_port", 8554)
	v.SetDefault("output_dir", filepath.Join(home, ".goprocam", "captures"))
	v.SetDefault("command_timeout_ms", 3000)
	v.SetDefault("idle_timeout_ms", 5000)
	v.SetDefault("keep_alive_interval_ms", 3000)
	v.SetDefault("keep_alive_error_count", 5)
	v.SetDefault("mqtt_broker", "")
	v.SetDefault("mqtt_topic", "goprocam/capture")
	v.SetDefault("client_uuid", uuid.New().String())
	v.SetDefault("log_level", "info")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.OutputDir = expandPath(cfg.OutputDir)

	// Create-on-first-run ONLY:
	// If Viper didn't read any file, pick a path and write it if missing.
	if v.ConfigFileUsed() == "" {
		writePath := configPath
		if writePath == "" {
			writePath = filepath.Join(home, ".goprocam", "cli_config.toml")
		}
		if _, statErr := os.Stat(writePath); errors.Is(statErr, os.ErrNotExist) {
			if _, err := cfg.Save(writePath); err != nil {
				return nil, fmt.Errorf("persist default app config: %w", err)
			}
			Info("client config written", Fields{
				ConfigPath: writePath,
			})
		}
	}

	return &cfg, nil
}

func (cfg *AppConfig) Save(path string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = filepath.Join(home, ".goprocam", "cli_config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("camera_host", cfg.CameraHost)
	v.Set("camera_port", cfg.CameraPort)
	v.Set("stream_port", cfg.StreamPort)
	v.Set("output_dir", cfg.OutputDir)
	v.Set("command_timeout_ms", cfg.CommandTimeoutMs)
	v.Set("idle_timeout_ms", cfg.IdleTimeoutMs)
	v.Set("keep_alive_interval_ms", cfg.KeepAliveIntervalMs)
	v.Set("keep_alive_error_count", cfg.KeepAliveErrorCount)
	v.Set("mqtt_broker", cfg.MqttBroker)
	v.Set("mqtt_topic", cfg.MqttTopic)
	v.Set("client_uuid", cfg.ClientUuid)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write app config: %w", err)
	}
	_ = os.Chmod(path, 0o600)
	return path, nil
}

func initViper(configPath, defaultDir, defaultName, defaultType, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(defaultType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultDir)
		v.AddConfigPath(".")
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound {
			Error("config file could not be read", Fields{
				ConfigPath: configPath,
			})
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
