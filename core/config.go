package core

import (
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
	ServerConfig struct {
		Address                   string
		DebugAddress              string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AllowedOrigins            []string
		BodyLimit                 string
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		InMemory     bool
		QueryTimeout time.Duration
	}

	PostgresConfig struct {
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
	}

	MongoConfig struct {
		URI  string
		Name string
	}

	UploadsConfig struct {
		Driver    string // disk | s3
		Dir       string
		URLPrefix string
	}

	S3Config struct {
		Bucket          string
		Region          string
		Endpoint        string
		AccessKeyID     string
		SecretAccessKey string
		PublicURL       string
	}

	KafkaConfig struct {
		Brokers []string
		Topic   string
	}

	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		SecretKey        string
		RefreshSecretKey string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Postgres PostgresConfig
		Mongo    MongoConfig
		Uploads  UploadsConfig
		S3       S3Config
		Kafka    KafkaConfig

		defaultFromEmail string
	}
)

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

func (pc PostgresConfig) Address() string {
	return pc.Host + ":" + pc.Port
}

// NewConfig loads the configuration of the current environment.
// ENV selects the environment (DEV by default); its name prefixes every variable, e.g. PROD_SECRETKEY.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Edureach")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2x!8w0$u+7q=n1d&e@r9t%c4h_s3z^b6m(l)y5j*v")
	v.SetDefault("refreshSecretKey", "r3fr3sh-9v6@p1#n$k0=z&m4+w8^q2!x7(c5)t")
	v.SetDefault("frontendBaseUrl", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.debugAddress", ":5050")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 15*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:5173", "http://localhost:5174"})
	v.SetDefault("server.bodyLimit", "20M")
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.inMemory", false)
	v.SetDefault("database.queryTimeout", 10*time.Second)

	v.SetDefault("postgres.user", "edureach")
	v.SetDefault("postgres.password", "edureach")
	v.SetDefault("postgres.adminUser", "postgres")
	v.SetDefault("postgres.adminPassword", "postgres")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.name", "edureach")
	v.SetDefault("postgres.disableTLS", true)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.name", "edureach")

	v.SetDefault("uploads.driver", "disk")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.urlPrefix", "/uploads")

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.accessKeyId", "")
	v.SetDefault("s3.secretAccessKey", "")
	v.SetDefault("s3.publicUrl", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "edureach.events")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
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
		Env:                       env,
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		Build:                     v.GetString("build"),
		SecretKey:                 v.GetString("secretKey"),
		RefreshSecretKey:          v.GetString("refreshSecretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseUrl"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			DebugAddress:              v.GetString("server.debugAddress"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			AllowedOrigins:            v.GetStringSlice("server.allowedOrigins"),
			BodyLimit:                 v.GetString("server.bodyLimit"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			InMemory:     v.GetBool("database.inMemory"),
			QueryTimeout: v.GetDuration("database.queryTimeout"),
		},
		Postgres: PostgresConfig{
			User:          v.GetString("postgres.user"),
			Password:      v.GetString("postgres.password"),
			AdminUser:     v.GetString("postgres.adminUser"),
			AdminPassword: v.GetString("postgres.adminPassword"),
			Host:          v.GetString("postgres.host"),
			Port:          v.GetString("postgres.port"),
			Name:          v.GetString("postgres.name"),
			DisableTLS:    v.GetBool("postgres.disableTLS"),
		},
		Mongo: MongoConfig{
			URI:  v.GetString("mongo.uri"),
			Name: v.GetString("mongo.name"),
		},
		Uploads: UploadsConfig{
			Driver:    v.GetString("uploads.driver"),
			Dir:       v.GetString("uploads.dir"),
			URLPrefix: v.GetString("uploads.urlPrefix"),
		},
		S3: S3Config{
			Bucket:          v.GetString("s3.bucket"),
			Region:          v.GetString("s3.region"),
			Endpoint:        v.GetString("s3.endpoint"),
			AccessKeyID:     v.GetString("s3.accessKeyId"),
			SecretAccessKey: v.GetString("s3.secretAccessKey"),
			PublicURL:       v.GetString("s3.publicUrl"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: in-memory storage, no request logs.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = false
	conf.Database.InMemory = true
	conf.Server.DisableReqLogs = true
	conf.SecretKey = "secret"
	conf.RefreshSecretKey = "refresh-secret"
	return conf
}
