package core

import (
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
	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	GoogleConfig struct {
		ClientID           string
		ClientSecret       string
		AuthURL            string
		TokenURL           string
		StudentRedirectURL string
		TeacherRedirectURL string
		AuthLinkTimeout    time.Duration
		RequestTimeout     time.Duration
	}

	UploadConfig struct {
		MaxFileSize int64
		RootFolder  string
		Concurrency int
	}

	Config struct {
		Env                 string // DEV (local; default), TEST, QA, PROD
		Build               string
		Debug               bool
		TestMode            bool
		AppName             string
		SecretKey           string
		FrontendBaseURL     string
		InstitutionalDomain string
		SendgridApiKey      string
		RollbarToken        string
		WorkDir             string

		Server   ServerConfig
		Database DatabaseConfig
		Google   GoogleConfig
		Upload   UploadConfig

		defaultFromEmail string
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.defaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// NewConfig loads the configuration of the current ENV from defaults, an optional
// config/.env.<env> file and <ENV>_ prefixed environment variables, in that order.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "ClassDrive")
	v.SetDefault("secretKey", "k1x#9w$lq0m)a5=7zv&e+4r2yj!hd(u8c3p^6b*n_so@tgf-i")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("institutionalDomain", "slrtce.in")
	v.SetDefault("defaultFromEmail", "ClassDrive <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "classdrive")
	v.SetDefault("database.user", "classdrive")
	v.SetDefault("database.password", "classdrive")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("google.clientID", "")
	v.SetDefault("google.clientSecret", "")
	v.SetDefault("google.authURL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("google.tokenURL", "https://oauth2.googleapis.com/token")
	v.SetDefault("google.studentRedirectURL", "http://localhost:8080/auth/student/callback")
	v.SetDefault("google.teacherRedirectURL", "http://localhost:8080/auth/google/callback")
	v.SetDefault("google.authLinkTimeout", 30*24*time.Hour)
	v.SetDefault("google.requestTimeout", 30*time.Second)

	v.SetDefault("upload.maxFileSize", int64(50*1024*1024))
	v.SetDefault("upload.rootFolder", "SLRTCE Files")
	v.SetDefault("upload.concurrency", 4)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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
	v.AutomaticEnv()

	return &Config{
		Env:                 env,
		Build:               v.GetString("build"),
		Debug:               v.GetBool("debug"),
		TestMode:            env == "TEST",
		AppName:             v.GetString("appName"),
		SecretKey:           v.GetString("secretKey"),
		FrontendBaseURL:     strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		InstitutionalDomain: CleanString(v.GetString("institutionalDomain"), true /* lower */),
		SendgridApiKey:      v.GetString("sendgridApiKey"),
		RollbarToken:        v.GetString("rollbarToken"),
		WorkDir:             wd,
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Google: GoogleConfig{
			ClientID:           v.GetString("google.clientID"),
			ClientSecret:       v.GetString("google.clientSecret"),
			AuthURL:            v.GetString("google.authURL"),
			TokenURL:           v.GetString("google.tokenURL"),
			StudentRedirectURL: v.GetString("google.studentRedirectURL"),
			TeacherRedirectURL: v.GetString("google.teacherRedirectURL"),
			AuthLinkTimeout:    v.GetDuration("google.authLinkTimeout"),
			RequestTimeout:     v.GetDuration("google.requestTimeout"),
		},
		Upload: UploadConfig{
			MaxFileSize: v.GetInt64("upload.maxFileSize"),
			RootFolder:  v.GetString("upload.rootFolder"),
			Concurrency: v.GetInt("upload.concurrency"),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, in-memory DB.
func NewTestConfig() *Config {
	return &Config{
		Env:                 "TEST",
		Build:               "test",
		TestMode:            true,
		AppName:             "ClassDrive",
		SecretKey:           "secret",
		FrontendBaseURL:     "http://localhost:8000",
		InstitutionalDomain: "inst.edu",
		Server: ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Database: DatabaseConfig{Engine: "memory"},
		Google: GoogleConfig{
			ClientID:           "client-id",
			ClientSecret:       "client-secret",
			AuthURL:            "https://accounts.google.com/o/oauth2/auth",
			TokenURL:           "https://oauth2.googleapis.com/token",
			StudentRedirectURL: "http://localhost:8080/auth/student/callback",
			TeacherRedirectURL: "http://localhost:8080/auth/google/callback",
			AuthLinkTimeout:    30 * 24 * time.Hour,
			RequestTimeout:     5 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileSize: 50 * 1024 * 1024,
			RootFolder:  "SLRTCE Files",
			Concurrency: 4,
		},
		defaultFromEmail: "ClassDrive <noreply@localhost>",
	}
}
