package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. CONSOLE_DEVICE_BASE_URL.
const envPrefix = "CONSOLE"

// Config is the typed view of configs/config.yml plus environment overrides.
type Config struct {
	Port     string
	LogLevel string
	Device   DeviceConfig
	Console  ConsoleConfig
	MQTT     MQTTConfig
}

type DeviceConfig struct {
	BaseURL        string
	RequestTimeout time.Duration // 0 = no timeout
}

type ConsoleConfig struct {
	PollInterval          time.Duration
	StaleAfterFailures    int  // 0 disables the stale indicator
	DiscardStaleResponses bool // drop responses older than the last applied one
	RequestTTL            time.Duration
}

// MQTTConfig enables the diagnostics mirror when Broker is set.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      int
}

var (
	errNoBaseURL       = errors.New("device.base_url is required")
	errBadPollInterval = errors.New("console.poll_interval must be > 0")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("device.base_url", "http://192.168.4.1")
	v.SetDefault("device.request_timeout", 0)
	v.SetDefault("console.poll_interval", 2*time.Second)
	v.SetDefault("console.stale_after_failures", 3)
	v.SetDefault("console.discard_stale_responses", false)
	v.SetDefault("console.request_ttl", 0)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "smartfarmer/console/diagnostics")
	v.SetDefault("mqtt.client_id", "smartfarmer-console")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)
}

// Load reads config.yml from the given directories (first match wins),
// loads .env if present and applies CONSOLE_* environment overrides.
// A missing config file is not an error; defaults apply.
func Load(paths ...string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		Device: DeviceConfig{
			BaseURL:        strings.TrimRight(v.GetString("device.base_url"), "/"),
			RequestTimeout: v.GetDuration("device.request_timeout"),
		},
		Console: ConsoleConfig{
			PollInterval:          v.GetDuration("console.poll_interval"),
			StaleAfterFailures:    v.GetInt("console.stale_after_failures"),
			DiscardStaleResponses: v.GetBool("console.discard_stale_responses"),
			RequestTTL:            v.GetDuration("console.request_ttl"),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("mqtt.broker"),
			Topic:    v.GetString("mqtt.topic"),
			ClientID: v.GetString("mqtt.client_id"),
			Username: v.GetString("mqtt.username"),
			Password: v.GetString("mqtt.password"),
			QoS:      v.GetInt("mqtt.qos"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the console cannot run without.
func (c Config) Validate() error {
	if c.Device.BaseURL == "" {
		return errNoBaseURL
	}
	u, err := url.Parse(c.Device.BaseURL)
	if err != nil {
		return fmt.Errorf("device.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("device.base_url %q: scheme must be http or https", c.Device.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("device.base_url %q: missing host", c.Device.BaseURL)
	}
	if c.Console.PollInterval <= 0 {
		return errBadPollInterval
	}
	if c.Console.StaleAfterFailures < 0 {
		return fmt.Errorf("console.stale_after_failures must be >= 0, got %d", c.Console.StaleAfterFailures)
	}
	if c.Device.RequestTimeout < 0 || c.Console.RequestTTL < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}
