package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dentalbook/doctor-assignment/internal/assignment"
	"github.com/dentalbook/doctor-assignment/internal/config"
	"github.com/dentalbook/doctor-assignment/internal/db"
	"github.com/dentalbook/doctor-assignment/internal/geocode"
	"github.com/dentalbook/doctor-assignment/internal/notify"
	redisclient "github.com/dentalbook/doctor-assignment/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("batch-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running batch worker in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := assignment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	resolver := geocode.NewResolver(cfg.GeocoderCountry,
		geocode.WithBaseURL(cfg.GeocoderBaseURL),
		geocode.WithTimeout(cfg.GeocoderTimeout),
		geocode.WithMinInterval(cfg.GeocoderDelay),
	)
	svc := assignment.NewService(repo, locker, assignment.NewRanker(resolver), notify.NewStreamDispatcher(rdb), cfg)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping batch worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *assignment.Service) {
	// Batches are sequential and each appointment may hit the geocoder, so
	// give a run plenty of room before cutting it off.
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	summary, err := svc.BatchAssign(runCtx)
	if err != nil {
		log.Printf("batch run error: %v", err)
		return
	}
	log.Printf("batch run complete in %s total=%d assigned=%d failed=%d",
		time.Since(start), summary.Total, summary.Assigned, summary.Failed)
}
