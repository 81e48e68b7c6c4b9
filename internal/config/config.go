package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Bench    BenchConfig    `mapstructure:"bench"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"      validate:"gt=0"`
}

// BenchConfig controls the benchmark workloads: how often they run, how
// many connections run them in parallel, and the size of the seeded dataset.
type BenchConfig struct {
	Iterations      int   `mapstructure:"iterations"        validate:"gt=0"`
	Workers         int   `mapstructure:"workers"           validate:"gt=0"`
	// Each insert binds two parameters per row, and Postgres binds at most
	// 65535 per statement.
	InsertSizes     []int `mapstructure:"insert_sizes"      validate:"required,min=1,dive,gt=0,lte=32767"`
	Users           int   `mapstructure:"users"             validate:"gte=0"`
	PostsPerUser    int   `mapstructure:"posts_per_user"    validate:"gte=0"`
	CommentsPerPost int   `mapstructure:"comments_per_post" validate:"gte=0"`
	Migrate         bool  `mapstructure:"migrate"`
}
