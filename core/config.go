package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		defaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
		WorkDir          string

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
		Email    EmailConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		CORSOrigins               []string
		DisableReqLogs            bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		InMemory      bool
	}

	// StorageConfig configures where uploaded task & submission files end up.
	StorageConfig struct {
		Backend       string // local | b2
		UploadsDir    string
		UploadsURL    string
		MaxUploadSize int64 // bytes
		B2AccountID   string
		B2AppKey      string
		B2Bucket      string
	}

	EmailConfig struct {
		Retries    int
		RetryDelay time.Duration
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("appName", "FYP Compass")
	conf.SetDefault("secretKey", "k2m!b8x&ql0(d7z$w4+re9@hv6_tc3=fy5*nu1)jpgs^a#o")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":5000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.corsOrigins", []string{"*"})
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 3*24*time.Hour)
	conf.SetDefault("server.passwordResetTimeoutDelta", time.Hour)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "compass")
	conf.SetDefault("database.user", "compass")
	conf.SetDefault("database.password", "compass")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "postgres")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.inMemory", false)

	conf.SetDefault("storage.backend", "local")
	conf.SetDefault("storage.uploadsDir", "uploads")
	conf.SetDefault("storage.uploadsURL", "/uploads")
	conf.SetDefault("storage.maxUploadSize", int64(20<<20))
	conf.SetDefault("storage.b2AccountID", "")
	conf.SetDefault("storage.b2AppKey", "")
	conf.SetDefault("storage.b2Bucket", "")

	conf.SetDefault("email.retries", 2)
	conf.SetDefault("email.retryDelay", 3*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  strings.TrimRight(conf.GetString("frontendBaseURL"), "/"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		WorkDir:          wd,
		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			Address:                   conf.GetString("server.address"),
			DebugHost:                 conf.GetString("server.debugHost"),
			CORSOrigins:               conf.GetStringSlice("server.corsOrigins"),
			DisableReqLogs:            conf.GetBool("server.disableReqLogs"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: conf.GetDuration("server.passwordResetTimeoutDelta"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
			InMemory:      conf.GetBool("database.inMemory"),
		},
		Storage: StorageConfig{
			Backend:       conf.GetString("storage.backend"),
			UploadsDir:    absPath(wd, conf.GetString("storage.uploadsDir")),
			UploadsURL:    "/" + strings.Trim(conf.GetString("storage.uploadsURL"), "/"),
			MaxUploadSize: conf.GetInt64("storage.maxUploadSize"),
			B2AccountID:   conf.GetString("storage.b2AccountID"),
			B2AppKey:      conf.GetString("storage.b2AppKey"),
			B2Bucket:      conf.GetString("storage.b2Bucket"),
		},
		Email: EmailConfig{
			Retries:    conf.GetInt("email.retries"),
			RetryDelay: conf.GetDuration("email.retryDelay"),
		},
	}
}

// NewTestConfig returns a Config suited for tests: in-memory DB, no retries delay, temp uploads dir.
func NewTestConfig(uploadsDir string) *Config {
	conf := NewConfig()
	conf.TestMode = true
	conf.Database.InMemory = true
	conf.Storage.Backend = "local"
	conf.Storage.UploadsDir = uploadsDir
	conf.Email.RetryDelay = 0
	conf.Server.DisableReqLogs = true
	return conf
}

func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s) env=%s debug=%t", c.AppName, c.Build, c.Env, c.Debug)
}
