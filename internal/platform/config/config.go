// Package config loads VMP configuration from flags, environment variables,
// and an optional YAML file, in that precedence order, using Viper the way
// the teacher's CLI entrypoint binds its own service flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SLAWindows gives the default SLA duration per case type. §4.1: "configurable".
type SLAWindows struct {
	Onboarding time.Duration
	Invoice    time.Duration
	Payment    time.Duration
	SOA        time.Duration
	Other      time.Duration
}

// Config is the fully resolved runtime configuration for the vmpd process.
type Config struct {
	Port int

	DatabaseURL string

	ObjectStoreEndpoint string
	ObjectStoreBucket   string
	ObjectStoreRegion   string
	ObjectStoreKey      string
	ObjectStoreSecret   string
	SignedURLTTL        time.Duration

	SigningKey   string // session/JWT signing key
	CookieSecret string

	RedisURL string

	NotificationSinkURL string // optional; empty disables the transport call

	SLATickerInterval time.Duration
	SLAWindows        SLAWindows

	DateToleranceDays int // SOA Pass B tolerance, §4.6

	BreakGlassContact string // revealed to the supplier UI on level-3 escalation

	LogLevel  string
	LogFormat string
}

// Default returns the out-of-the-box configuration described in §4.1 and
// §6's environment-inputs list.
func Default() Config {
	return Config{
		Port:              8080,
		SignedURLTTL:      1 * time.Hour,
		SLATickerInterval: 15 * time.Minute,
		SLAWindows: SLAWindows{
			Onboarding: 5 * 24 * time.Hour,
			Invoice:    3 * 24 * time.Hour,
			Payment:    2 * 24 * time.Hour,
			SOA:        7 * 24 * time.Hour,
			Other:      5 * 24 * time.Hour,
		},
		DateToleranceDays: 7,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// BindFlags registers the persistent flags a vmpd command exposes and binds
// each one to its Viper key, mirroring the teacher's flag-to-config mapping
// in cli/root.go.
func BindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "config file (default $HOME/.vmp.yaml)")
	cmd.PersistentFlags().Int("port", 0, "HTTP listen port")
	cmd.PersistentFlags().String("database-url", "", "Postgres connection string")
	cmd.PersistentFlags().String("object-store-endpoint", "", "S3-compatible endpoint")
	cmd.PersistentFlags().String("object-store-bucket", "vmp-evidence", "Evidence bucket name")
	cmd.PersistentFlags().String("object-store-region", "", "Object store region")
	cmd.PersistentFlags().String("signing-key", "", "Session/JWT signing key")
	cmd.PersistentFlags().String("redis-url", "", "Redis URL for notification fan-out")
	cmd.PersistentFlags().String("notification-sink-url", "", "Optional downstream notification transport endpoint")
	cmd.PersistentFlags().String("break-glass-contact", "", "Escalation contact revealed on level-3 escalation")

	viper.BindPFlag("port", cmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("database.url", cmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("objectstore.endpoint", cmd.PersistentFlags().Lookup("object-store-endpoint"))
	viper.BindPFlag("objectstore.bucket", cmd.PersistentFlags().Lookup("object-store-bucket"))
	viper.BindPFlag("objectstore.region", cmd.PersistentFlags().Lookup("object-store-region"))
	viper.BindPFlag("signing_key", cmd.PersistentFlags().Lookup("signing-key"))
	viper.BindPFlag("redis.url", cmd.PersistentFlags().Lookup("redis-url"))
	viper.BindPFlag("notification.sink_url", cmd.PersistentFlags().Lookup("notification-sink-url"))
	viper.BindPFlag("break_glass_contact", cmd.PersistentFlags().Lookup("break-glass-contact"))
}

// Load searches $HOME and the working directory for .vmp.yaml, then layers
// environment variables and flags on top via Viper's standard precedence,
// returning a fully resolved Config.
func Load(cfgFile string) (Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vmp")
	}
	viper.SetEnvPrefix("VMP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	}

	if v := viper.GetInt("port"); v != 0 {
		cfg.Port = v
	}
	cfg.DatabaseURL = viper.GetString("database.url")
	cfg.ObjectStoreEndpoint = viper.GetString("objectstore.endpoint")
	if b := viper.GetString("objectstore.bucket"); b != "" {
		cfg.ObjectStoreBucket = b
	} else {
		cfg.ObjectStoreBucket = "vmp-evidence"
	}
	cfg.ObjectStoreRegion = viper.GetString("objectstore.region")
	cfg.ObjectStoreKey = viper.GetString("objectstore.access_key")
	cfg.ObjectStoreSecret = viper.GetString("objectstore.secret_key")
	cfg.SigningKey = viper.GetString("signing_key")
	cfg.CookieSecret = viper.GetString("cookie_secret")
	cfg.RedisURL = viper.GetString("redis.url")
	cfg.NotificationSinkURL = viper.GetString("notification.sink_url")
	cfg.BreakGlassContact = viper.GetString("break_glass_contact")
	if v := viper.GetInt("soa_date_tolerance_days"); v > 0 {
		cfg.DateToleranceDays = v
	}
	for key, dst := range map[string]*time.Duration{
		"sla_window_onboarding": &cfg.SLAWindows.Onboarding,
		"sla_window_invoice":    &cfg.SLAWindows.Invoice,
		"sla_window_payment":    &cfg.SLAWindows.Payment,
		"sla_window_soa":        &cfg.SLAWindows.SOA,
		"sla_window_other":      &cfg.SLAWindows.Other,
	} {
		if v := viper.GetDuration(key); v > 0 {
			*dst = v
		}
	}

	if cfg.SigningKey == "" {
		return cfg, fmt.Errorf("signing_key is required")
	}

	return cfg, nil
}
