package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr        string        `mapstructure:"http_addr" yaml:"http_addr"`
	CredentialsPath string        `mapstructure:"credentials_path" yaml:"credentials_path"`
	CredentialsDB   string        `mapstructure:"credentials_db" yaml:"credentials_db"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile         string        `mapstructure:"log_file" yaml:"log_file"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Admin API tokens. An empty secret leaves the admin API unauthenticated.
	AdminJWTSecret string        `mapstructure:"admin_jwt_secret" yaml:"admin_jwt_secret"`
	AdminJWTIssuer string        `mapstructure:"admin_jwt_issuer" yaml:"admin_jwt_issuer"`
	AdminJWTTTL    time.Duration `mapstructure:"admin_jwt_ttl" yaml:"admin_jwt_ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:            ":12345",
		HTTPAddr:        ":8080",
		CredentialsPath: "users.txt",
		LogLevel:        "info",
		ReadBufferSize:  1024,
		ShutdownTimeout: 5 * time.Second,
		AdminJWTIssuer:  "chatd",
		AdminJWTTTL:     24 * time.Hour,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.CredentialsPath != "" {
		c.CredentialsPath = other.CredentialsPath
	}
	if other.CredentialsDB != "" {
		c.CredentialsDB = other.CredentialsDB
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.ReadBufferSize != 0 {
		c.ReadBufferSize = other.ReadBufferSize
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.AdminJWTSecret != "" {
		c.AdminJWTSecret = other.AdminJWTSecret
	}
	if other.AdminJWTIssuer != "" {
		c.AdminJWTIssuer = other.AdminJWTIssuer
	}
	if other.AdminJWTTTL != 0 {
		c.AdminJWTTTL = other.AdminJWTTTL
	}
}
