package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"eventhub/cmd/buildCFG"
	"eventhub/internal/api/api"
	"eventhub/internal/auth"
	"eventhub/internal/consumerWorker"
	"eventhub/internal/mailer"
	"eventhub/internal/rabbit"
	"eventhub/internal/repo"
	"eventhub/internal/service"
	"eventhub/internal/sweeper"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	if err := run(&log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
	log.Info().Msg("Shutdown complete")
}

// run wires the application and blocks until a shutdown signal or a server
// error. Deferred cleanups always run before it returns.
func run(log *zerolog.Logger) error {
	cfg := config.New()
	if err := cfg.Load("config.yaml", "", ""); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, log)
	storageCfg, err := buildCFG.BuildStorageConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("build storage config: %w", err)
	}
	authCfg, err := buildCFG.BuildAuthConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("build auth config: %w", err)
	}
	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("build RabbitMQ config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, cleanup, err := openRepository(ctx, cfg, storageCfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := service.BootstrapAdmin(ctx, repository, log, authCfg.AdminEmail, authCfg.AdminName, authCfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	opts := service.Options{ReminderLead: rabbitCfg.ReminderLead, MaxDelay: rabbit.MaxDelay}
	if rabbitCfg.Enabled {
		rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue, log)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer rmq.Close()
		opts.Publisher = rmq

		mailCfg := buildCFG.BuildMailConfig(cfg, log)
		var sender mailer.Sender = mailer.LogSender{Log: log}
		if mailCfg.Host != "" {
			sender = mailer.NewSMTP(mailCfg, log)
		}
		reader := consumerWorker.NewReader(rmq, repository, sender, log)
		reader.Start(ctx)
		defer reader.Stop()
	}

	sweeperCfg := buildCFG.BuildSweeperConfig(cfg, log)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.New(repository, sweeperCfg.Interval, log).Run(ctx)
	}()
	defer func() {
		stop()
		<-sweeperDone
	}()

	tokens := auth.NewTokens(authCfg.Secret, authCfg.TTL, authCfg.Issuer)
	serviceInstance := service.NewService(repository, log, tokens, opts)
	app := api.NewRouters(&api.Routers{
		Service:     serviceInstance,
		Tokens:      tokens,
		Log:         log,
		Mode:        serverCfg.Mode,
		CORSOrigins: serverCfg.CORSOrigins,
	})

	srv := &http.Server{Addr: ":" + serverCfg.Port, Handler: app}
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-serverErrChan:
		log.Error().Err(serveErr).Msg("server error")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// openRepository connects the configured storage driver and prepares its
// schema. The returned cleanup releases the connection.
func openRepository(ctx context.Context, cfg *config.Config, sc buildCFG.StorageConfig, log *zerolog.Logger) (repo.Repository, func(), error) {
	switch sc.Driver {
	case "memory":
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		return repo.NewMemory(), func() {}, nil

	case "mongo":
		mc := buildCFG.BuildMongoConfig(cfg, log)
		client, err := mongo.Connect(options.Client().ApplyURI(mc.URI).SetTimeout(mc.Timeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to disconnect MongoDB")
			}
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("MongoDB ping: %w", err)
		}
		store := repo.NewMongo(client, mc.Database, log)
		if err := store.EnsureIndexes(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create MongoDB indexes: %w", err)
		}
		log.Info().Msg("MongoDB connected successfully")
		return store, cleanup, nil
	}

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("build DB config: %w", err)
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to DB: %w", err)
	}
	closeDB := func() {
		if err := db.Master.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close DB")
		}
	}
	if err := db.Master.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("DB ping: %w", err)
	}
	log.Info().Msg("Database connected successfully")

	store, err := repo.NewRepository(db, log)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("initialize repository: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("get working directory: %w", err)
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := store.MigrateUp(migrationPath); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	log.Info().Msg("Migrations applied successfully")

	return store, func() {
		if sc.RollbackOnExit {
			log.Info().Msg("Rolling back migrations...")
			if err := store.MigrateDown(migrationPath); err != nil {
				log.Error().Err(err).Msg("failed to rollback migrations")
			}
		}
		closeDB()
	}, nil
}
