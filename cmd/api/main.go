package main

import (
	"context"
	"log"

	"github.com/brandforge-ai/brandforge-backend/config"
	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	"github.com/brandforge-ai/brandforge-backend/internal/bootstrap"
	chatrepo "github.com/brandforge-ai/brandforge-backend/internal/chat/repository"
	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	cronjob "github.com/brandforge-ai/brandforge-backend/internal/onboarding/cron"
	"github.com/brandforge-ai/brandforge-backend/internal/profiles"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	ids, err := identity.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}

	gateway := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)

	router, sessionRepo := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "brandforge-backend",
		Version:     cfg.App.Version,
		DB:          pool,
		Redis:       rdb,
		Identity:    ids,
		Gateway:     gateway,
	})

	reconciler := cronjob.NewReconciler(
		sessionRepo,
		chatrepo.NewMessageRepository(pool),
		profiles.NewRepo(pool),
	)
	reconciler.Start()
	defer reconciler.Stop()

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
