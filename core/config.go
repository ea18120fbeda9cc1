package core

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		AppName  string
		Build    string

		SecretKey            string
		FrontendBaseURL      string
		DefaultFromName      string
		DefaultFromAddress   string
		SendgridApiKey       string
		RollbarToken         string
		GeneratedPasswordLen int
		OTPLength            int

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		OTPExpirationDelta        time.Duration
		OTPResendExpirationDelta  time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       int
		DisableTLS bool
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddress}
}

func (sc ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

func (dc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dc.Host, dc.Port)
}

// DSN builds the postgres connection string.
func (dc DatabaseConfig) DSN() string {
	sslMode := "require"
	if dc.DisableTLS {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		dc.Host, dc.Port, dc.User, dc.Password, dc.Name, sslMode,
	)
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables; in that order of
// increasing precedence.
func NewConfig(workDir string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testmode", false)
	v.SetDefault("appname", "Shule")
	v.SetDefault("secretkey", "#5kq7ju)d0-2ln+i&9%!w(7bxz^8t=3@gy$4mh_1*pvfos6rce")
	v.SetDefault("frontendbaseurl", "http://localhost:3000")
	v.SetDefault("defaultfromname", "School Management System")
	v.SetDefault("defaultfromaddress", "noreply@localhost")
	v.SetDefault("generatedpasswordlen", 12)
	v.SetDefault("otplength", 6)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.jwtexpirationdelta", time.Hour)
	v.SetDefault("server.jwtrefreshexpirationdelta", 7*24*time.Hour)
	v.SetDefault("server.otpexpirationdelta", time.Hour)
	v.SetDefault("server.otpresendexpirationdelta", 30*time.Minute)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "shule")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disabletls", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)
	if env == "TEST" {
		v.SetDefault("testmode", true)
	}
	if env == "PROD" {
		v.SetDefault("debug", false)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return conf, nil
}

// NewTestConfig returns a Config suitable for unit tests; no env files are consulted.
func NewTestConfig() *Config {
	return &Config{
		Debug:                true,
		TestMode:             true,
		Env:                  "TEST",
		AppName:              "Shule",
		SecretKey:            "test-secret-key",
		FrontendBaseURL:      "http://localhost:3000",
		DefaultFromName:      "School Management System",
		DefaultFromAddress:   "noreply@test.local",
		GeneratedPasswordLen: 12,
		OTPLength:            6,
		Server: ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
			OTPExpirationDelta:        time.Hour,
			OTPResendExpirationDelta:  30 * time.Minute,
		},
	}
}
