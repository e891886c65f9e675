package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/devdash/profile-backend/config"
	"github.com/devdash/profile-backend/internal/bootstrap"
	"github.com/devdash/profile-backend/internal/profile/repository"
	"github.com/devdash/profile-backend/internal/publish"
)

// RunFlushCache replays queued profile-cache writes that failed after a
// committed publish. One-shot by default; -loop keeps the scheduled
// flusher running, for deployments where the API process doesn't own
// the queue.
func RunFlushCache(args []string) {
	loop := len(args) > 0 && args[0] == "-loop"

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	queue := publish.NewRedisRetryQueue(rdb)
	cache := repository.NewCacheRepository(db)

	if !loop {
		synced, err := queue.Flush(ctx, cache)
		if err != nil {
			log.Fatalf("flush: %v", err)
		}
		log.Printf("flushed %d cache entries", synced)
		return
	}

	flusher := publish.NewRetryFlusher(queue, cache)
	flusher.Start()
	defer flusher.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("worker stopping")
}
