package buildCFG

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/mailer"
)

type ServerConfig struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type StorageConfig struct {
	// Driver is one of postgres, mongo, memory.
	Driver string
	// RollbackOnExit runs the down migrations at shutdown. Development only.
	RollbackOnExit bool
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RabbitConfig struct {
	Enabled      bool
	Url          string
	Exchange     string
	Queue        string
	ReminderLead time.Duration
}

type AuthConfig struct {
	Secret        string
	TTL           time.Duration
	Issuer        string
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

type SweeperConfig struct {
	Interval time.Duration
}

func stringOr(cfg *config.Config, key, def string) string {
	if v := cfg.GetString(key); v != "" {
		return v
	}
	return def
}

func intOr(cfg *config.Config, key string, def int) int {
	if v := cfg.GetInt(key); v != 0 {
		return v
	}
	return def
}

func durationOr(cfg *config.Config, key string, def time.Duration) time.Duration {
	if v := cfg.GetDuration(key); v > 0 {
		return v
	}
	return def
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	sc := ServerConfig{
		Port:            stringOr(cfg, "server.port", "8080"),
		Mode:            stringOr(cfg, "server.mode", "release"),
		ShutdownTimeout: durationOr(cfg, "server.shutdown_timeout", 10*time.Second),
		CORSOrigins:     cfg.GetStringSlice("server.cors_origins"),
	}
	log.Info().Str("port", sc.Port).Str("mode", sc.Mode).Msg("server config loaded")
	return sc
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) (StorageConfig, error) {
	sc := StorageConfig{
		Driver:         stringOr(cfg, "storage.driver", "postgres"),
		RollbackOnExit: cfg.GetBool("storage.rollback_on_exit"),
	}
	switch sc.Driver {
	case "postgres", "mongo", "memory":
	default:
		return sc, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	log.Info().Str("driver", sc.Driver).Msg("storage config loaded")
	return sc, nil
}

// BuildDBConfig returns the master DSN, replica DSNs and pool options for dbpg.
func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	host := stringOr(cfg, "db.host", "localhost")
	port := intOr(cfg, "db.port", 5432)
	user := stringOr(cfg, "db.user", "postgres")
	name := stringOr(cfg, "db.name", "eventhub")
	sslmode := stringOr(cfg, "db.sslmode", "disable")
	password := cfg.GetString("db.password")
	if password == "" {
		return "", nil, nil, errors.New("db.password is not set")
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     name,
		RawQuery: "sslmode=" + sslmode,
	}
	opts := &dbpg.Options{
		MaxOpenConns:    intOr(cfg, "db.max_open_conns", 20),
		MaxIdleConns:    intOr(cfg, "db.max_idle_conns", 5),
		ConnMaxLifetime: durationOr(cfg, "db.conn_max_lifetime", 30*time.Minute),
	}
	slaves := cfg.GetStringSlice("db.slaves")

	log.Info().Str("host", host).Int("port", port).Str("db", name).Int("replicas", len(slaves)).Msg("db config loaded")
	return dsn.String(), slaves, opts, nil
}

func BuildMongoConfig(cfg *config.Config, log *zerolog.Logger) MongoConfig {
	mc := MongoConfig{
		URI:      stringOr(cfg, "mongo.uri", "mongodb://localhost:27017"),
		Database: stringOr(cfg, "mongo.database", "eventhub"),
		Timeout:  durationOr(cfg, "mongo.timeout", 10*time.Second),
	}
	log.Info().Str("database", mc.Database).Msg("mongo config loaded")
	return mc
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Enabled:      cfg.GetBool("rabbit.enabled"),
		Url:          cfg.GetString("rabbit.url"),
		Exchange:     stringOr(cfg, "rabbit.exchange", "eventhub.delayed"),
		Queue:        stringOr(cfg, "rabbit.queue", "eventhub.notifications"),
		ReminderLead: durationOr(cfg, "rabbit.reminder_lead", 24*time.Hour),
	}
	if rc.Enabled && rc.Url == "" {
		return rc, errors.New("rabbit.url is required when rabbit is enabled")
	}
	log.Info().Bool("enabled", rc.Enabled).Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config loaded")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (AuthConfig, error) {
	ac := AuthConfig{
		Secret:        cfg.GetString("auth.jwt_secret"),
		TTL:           durationOr(cfg, "auth.token_ttl", 24*time.Hour),
		Issuer:        stringOr(cfg, "auth.issuer", "eventhub"),
		AdminEmail:    cfg.GetString("auth.admin_email"),
		AdminName:     stringOr(cfg, "auth.admin_name", "Administrator"),
		AdminPassword: cfg.GetString("auth.admin_password"),
	}
	if len(ac.Secret) < 16 {
		return ac, errors.New("auth.jwt_secret must be at least 16 characters")
	}
	log.Info().Dur("ttl", ac.TTL).Msg("auth config loaded")
	return ac, nil
}

func BuildMailConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("mail.host"),
		Port:     intOr(cfg, "mail.port", 587),
		Username: cfg.GetString("mail.username"),
		Password: cfg.GetString("mail.password"),
		From:     stringOr(cfg, "mail.from", "no-reply@eventhub.local"),
	}
	log.Info().Str("host", mc.Host).Int("port", mc.Port).Msg("mail config loaded")
	return mc
}

func BuildSweeperConfig(cfg *config.Config, log *zerolog.Logger) SweeperConfig {
	sc := SweeperConfig{Interval: durationOr(cfg, "sweeper.interval", time.Minute)}
	log.Info().Dur("interval", sc.Interval).Msg("sweeper config loaded")
	return sc
}
