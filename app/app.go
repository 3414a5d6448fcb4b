package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leapzhao/json-docstore/config"
	"github.com/leapzhao/json-docstore/database"
	"github.com/leapzhao/json-docstore/events"
	"github.com/leapzhao/json-docstore/handler"
	"github.com/leapzhao/json-docstore/logger"
	"github.com/leapzhao/json-docstore/router"
	"github.com/leapzhao/json-docstore/server"

	"github.com/rs/zerolog/log"
)

type Application struct {
	config    *config.Config
	store     database.DocumentStore
	publisher events.Publisher
	server    *server.Server
	build     handler.BuildInfo
	errc      chan error
}

// New 创建应用实例
func New(ctx context.Context, cfg *config.Config, build handler.BuildInfo) (*Application, error) {
	if err := logger.Init(*cfg); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	// 创建连接池和文档存储
	store, err := database.CreateStore(ctx, *cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database store: %w", err)
	}

	publisher, err := events.New(ctx, *cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	log.Info().
		Str("database_type", cfg.Database.Type).
		Bool("events", cfg.Events.Enabled).
		Msg("Application initialized")

	build.Environment = string(cfg.Environment)

	return &Application{
		config:    cfg,
		store:     store,
		publisher: publisher,
		build:     build,
		errc:      make(chan error, 1),
	}, nil
}

// Start 启动应用
func (app *Application) Start() error {
	h := handler.NewDocumentHandler(app.store, app.publisher, app.build)
	ginRouter := router.Init(*app.config, h)

	app.server = server.New(*app.config, ginRouter)

	go func() {
		app.errc <- app.server.Start()
	}()

	return nil
}

// Shutdown 关闭应用
func (app *Application) Shutdown(ctx context.Context) error {
	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}

	if err := app.publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close event publisher")
	}

	// 关闭连接池
	if err := app.store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database connection")
	}

	log.Info().Msg("Application shutdown completed")
	return nil
}

// Run 运行应用直到收到关闭信号或服务器退出
func (app *Application) Run() error {
	if err := app.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-app.errc:
		runErr = err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Application shutdown error")
	}

	return runErr
}

// GetConfig 获取配置
func (app *Application) GetConfig() *config.Config {
	return app.config
}

// GetStore 获取文档存储
func (app *Application) GetStore() database.DocumentStore {
	return app.store
}
