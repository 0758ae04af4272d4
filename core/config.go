package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the loaded application configuration. Set once by LoadConfig at startup.
var Conf *Config

type (
	ServerConfig struct {
		Host string
		Port string
	}

	DatabaseConfig struct {
		Engine        string // memory (default), postgres, sqlite
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Path          string // sqlite file path
		DisableTLS    bool
	}

	KafkaConfig struct {
		Brokers []string
		Topic   string
	}

	Config struct {
		Debug             bool
		TestMode          bool
		Env               string
		Build             string
		AppName           string
		SecretKey         string
		WorkDir           string
		FrontendBaseURL   string
		DefaultFromEmail  string
		SendgridAPIKey    string
		RollbarToken      string
		ReconcileInterval time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Kafka    KafkaConfig
	}
)

func (c ServerConfig) Address() string   { return c.Host + ":" + c.Port }
func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

func (c *Config) DefaultFromAddress() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// LoadConfig reads configuration from ENV-prefixed environment variables,
// falling back to config/.env.<env> if it exists, then to defaults.
func LoadConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "SmartStudent")
	v.SetDefault("secretKey", "n0t1c3s-p0q5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("reconcileInterval", 5*time.Minute)
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8080")
	v.SetDefault("dbEngine", "memory")
	v.SetDefault("dbName", "notices")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbPath", "notices.db")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("kafkaTopic", "notice-invalidations")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:             v.GetBool("debug"),
		TestMode:          v.GetBool("testMode"),
		Env:               env,
		Build:             v.GetString("build"),
		AppName:           v.GetString("appName"),
		SecretKey:         v.GetString("secretKey"),
		WorkDir:           wd,
		FrontendBaseURL:   v.GetString("frontendBaseURL"),
		DefaultFromEmail:  v.GetString("defaultFromEmail"),
		SendgridAPIKey:    v.GetString("sendgridApiKey"),
		RollbarToken:      v.GetString("rollbarToken"),
		ReconcileInterval: v.GetDuration("reconcileInterval"),
		Server: ServerConfig{
			Host: v.GetString("serverHost"),
			Port: v.GetString("serverPort"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Path:          v.GetString("dbPath"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("kafkaBrokers"),
			Topic:   v.GetString("kafkaTopic"),
		},
	}
	if Conf.Build == "" {
		Conf.Build = fmt.Sprintf("dev-%s", strings.ToLower(env))
	}
	return Conf
}
