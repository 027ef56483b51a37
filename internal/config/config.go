package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Persistence PersistenceConfig `mapstructure:"persistence" validate:"required"`
	Study       StudyConfig       `mapstructure:"study" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	TLSCertFile     string        `mapstructure:"tls_cert" validate:"required_if=TLSEnabled true"`
	TLSKeyFile      string        `mapstructure:"tls_key" validate:"required_if=TLSEnabled true"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	Origins []string `mapstructure:"origins" validate:"dive,required"`
}

// Persistence backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// PersistenceConfig selects where the study is stored and how saves are
// scheduled.
type PersistenceConfig struct {
	Backend     string `mapstructure:"backend" validate:"required,oneof=file postgres sqlite"`
	Path        string `mapstructure:"path" validate:"required_unless=Backend postgres"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Backend postgres"`
	// Sync makes every submission wait for its save before the response is
	// sent. When false, saves run in the background.
	Sync      bool `mapstructure:"sync"`
	QueueSize int  `mapstructure:"queue_size" validate:"gt=0"`
}

// StudyConfig controls challenge generation.
type StudyConfig struct {
	BitsBase int `mapstructure:"bits_base" validate:"gt=0"`
	BitsMax  int `mapstructure:"bits_max" validate:"gtefield=BitsBase"`
	BitsStep int `mapstructure:"bits_step" validate:"gte=0"`
}
