package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings is the service-level configuration of simsvc (simsvc.yaml).
type Settings struct {
	LogLevel    string        `mapstructure:"logLevel"`
	LogFormat   string        `mapstructure:"logFormat"`
	AuditSample uint32        `mapstructure:"auditSample"`
	ContentDir  string        `mapstructure:"contentDir"`
	Seed        int64         `mapstructure:"seed"`
	Dt          float64       `mapstructure:"dt"`
	Duration    float64       `mapstructure:"duration"`
	Parallel    bool          `mapstructure:"parallelAI"`
	Metrics     bool          `mapstructure:"metrics"`
	AuditDB     AuditDBConfig `mapstructure:"auditDB"`
	Serve       ServeConfig   `mapstructure:"serve"`
}

// AuditDBConfig holds the SQLite audit recorder settings. An empty path
// disables the recorder.
type AuditDBConfig struct {
	Path          string        `mapstructure:"path"`
	BatchSize     int           `mapstructure:"batchSize"`
	FlushInterval time.Duration `mapstructure:"flushInterval"`
}

type ServeConfig struct {
	Addr     string  `mapstructure:"addr"`
	TickRate float64 `mapstructure:"tickRate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")
	v.SetDefault("auditSample", 10)
	v.SetDefault("contentDir", "assets")
	v.SetDefault("seed", 12345)
	v.SetDefault("dt", 0.05)
	v.SetDefault("duration", 90.0)
	v.SetDefault("parallelAI", false)
	v.SetDefault("metrics", false)

	v.SetDefault("auditDB.path", "")
	v.SetDefault("auditDB.batchSize", 500)
	v.SetDefault("auditDB.flushInterval", "2s")

	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.tickRate", 20.0)
}

// LoadSettings reads simsvc.yaml from configDir on top of the defaults.
func LoadSettings(configDir string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("simsvc")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

// DefaultSettings returns the defaults without reading any file.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}
