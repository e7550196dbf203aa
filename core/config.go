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

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey          string
		JWTExpirationDelta time.Duration

		Server struct {
			Host string
			Addr string
		}

		Database struct {
			Engine        string
			Name          string
			Host          string
			Port          string
			User          string
			Password      string
			AdminUser     string
			AdminPassword string
			DisableTLS    bool
		}

		SMS struct {
			APIURL   string
			APIToken string
			From     string
		}

		SendgridAPIKey   string
		DefaultFromEmail mail.Address
		RollbarToken     string

		// NotifyTimeout bounds every outbound notification call so a dead
		// gateway cannot stall a sweep.
		NotifyTimeout time.Duration

		AttendanceSweepInterval time.Duration
		PaymentSweepInterval    time.Duration

		WorkDir string
	}
)

func (conf *Config) IsDeployed() bool {
	return !(conf.Debug || conf.TestMode)
}

func (conf *Config) DatabaseAddress() string {
	return conf.Database.Host + ":" + conf.Database.Port
}

// NewConfig loads the app configuration from the environment.
// An optional config/.env.<env> file is loaded first if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "ERP")
	v.SetDefault("secretKey", "x6u)b$8^#+qzp0c0l&w5e&=e2m$ya)abnhye-g5m9_0n7cpjhl")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "erp")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("smsFrom", "4546")
	v.SetDefault("notifyTimeout", 10*time.Second)
	v.SetDefault("attendanceSweepInterval", 15*time.Minute)
	v.SetDefault("paymentSweepInterval", 24*time.Hour)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:                env,
		Debug:              v.GetBool("debug"),
		TestMode:           env == "TEST",
		AppName:            v.GetString("appName"),
		Build:              v.GetString("build"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		SendgridAPIKey:     v.GetString("sendgridApiKey"),
		DefaultFromEmail:   mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		RollbarToken:       v.GetString("rollbarToken"),
		NotifyTimeout:      v.GetDuration("notifyTimeout"),

		AttendanceSweepInterval: v.GetDuration("attendanceSweepInterval"),
		PaymentSweepInterval:    v.GetDuration("paymentSweepInterval"),

		WorkDir: wd,
	}
	conf.Server.Host, _ = os.Hostname()
	conf.Server.Addr = v.GetString("serverAddr")

	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Port = v.GetString("dbPort")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.AdminUser = v.GetString("dbAdminUser")
	conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	conf.Database.DisableTLS = v.GetBool("dbDisableTls")

	conf.SMS.APIURL = v.GetString("smsApiUrl")
	conf.SMS.APIToken = v.GetString("smsApiToken")
	conf.SMS.From = v.GetString("smsFrom")

	return conf
}

func getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(fmt.Errorf("config.getwd: %v", err))
	}
	return wd
}
