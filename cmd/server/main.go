package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/auth"
	"github.com/PyWorldGeo/chatroomproject2/internal/config"
	"github.com/PyWorldGeo/chatroomproject2/internal/handlers"
	httpx "github.com/PyWorldGeo/chatroomproject2/internal/http"
	"github.com/PyWorldGeo/chatroomproject2/internal/logging"
	"github.com/PyWorldGeo/chatroomproject2/internal/mail"
	"github.com/PyWorldGeo/chatroomproject2/internal/render"
	"github.com/PyWorldGeo/chatroomproject2/internal/repo"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db, err := repo.OpenSQLite(cfg.Database.Path, cfg.Database.Debug)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,              // 接続プールサイズ
		MinIdleConns: 5,               // 最小アイドル接続数
		MaxRetries:   3,               // リトライ回数
		DialTimeout:  5 * time.Second, // 接続タイムアウト
		ReadTimeout:  3 * time.Second, // 読み込みタイムアウト
		WriteTimeout: 3 * time.Second, // 書き込みタイムアウト
		PoolTimeout:  4 * time.Second, // プールからの取得タイムアウト
	})

	// Redis接続確認
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
	}
	logging.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	users := repo.NewGormUserRepo(db)
	forum := service.NewForumService(service.Repos{
		Users:    users,
		Topics:   repo.NewGormTopicRepo(db),
		Rooms:    repo.NewGormRoomRepo(db),
		Messages: repo.NewGormMessageRepo(db),
	}, mail.New(cfg.Email), cfg.Email.User)
	accounts := service.NewAccountService(users, repo.NewRedisAvatarRepo(rdb), auth.NewBcryptHasher())
	sessions := auth.NewSessions(repo.NewRedisSessionRepo(rdb), accounts, cfg.Session)

	view, err := render.New()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse templates")
	}

	hub := handlers.NewRoomHub()
	forum.SetEvents(hub)

	router := httpx.NewRouter(httpx.Handlers{
		Forum:   handlers.NewForumHandler(forum, view),
		Account: handlers.NewAccountHandler(accounts, forum, sessions, cfg.Avatar, view),
		Feed:    handlers.NewFeedHandler(forum, hub, cfg.Server.AllowedOrigins),
		Avatar:  handlers.NewAvatarHandler(accounts),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
	}, sessions, httpx.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		LoginRateLimit:  cfg.RateLimit.Requests,
		LoginRateWindow: cfg.RateLimit.Window,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// サーバーを別goroutineで起動
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	// シグナル受信後、HTTP → Redis → SQLite の順に閉じる
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				logging.Info().Msg("shutdown signal received, shutting down gracefully...")
				if err := srv.Shutdown(ctx); err != nil {
					return err
				}
				if err := rdb.Close(); err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	code := <-wait
	logging.Info().Int("code", code).Msg("server stopped")
	os.Exit(code)
}
