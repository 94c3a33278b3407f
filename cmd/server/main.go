package main

import (
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"castforge/internal/config"
	"castforge/internal/db"
	"castforge/internal/handlers"
	"castforge/internal/logger"
	"castforge/internal/middleware"
	"castforge/internal/service"
	"castforge/internal/storage"
)

// CommitSHA is set at build time via ldflags.
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	conn, err := db.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer conn.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})
	defer asynqClient.Close()
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	podcasts := db.NewPodcastStore(conn)
	versions := db.NewVersionStore(conn)
	jobs := db.NewJobStore(conn)
	users := db.NewUserStore(conn)
	documents := db.NewDocumentStore(conn)
	approvals := db.NewApprovalStore(conn)

	podcastSvc := service.NewPodcastService(log, podcasts, versions, approvals)
	dispatcher := service.NewDispatcher(log, podcasts, versions, jobs, asynqClient, rdb)

	// Audio is written by the worker; the server only serves local files.
	var audioDir string
	if cfg.Storage.Backend == "local" {
		audioDir = storage.NewLocalStore(cfg.Storage.AudioDir, cfg.Server.BaseURL).Dir()
	}

	h := handlers.New(log, podcastSvc, dispatcher, documents, users, versions, audioDir, cfg.Server.BaseURL)
	auth := middleware.NewAuth(log, cfg.Auth.JWTSecret, users)
	limiter := middleware.NewRateLimiter(log, rate.Limit(5), 10)

	addr := ":" + cfg.Server.Port
	log.Infow("server starting", "addr", addr, "commit", CommitSHA)
	if err := http.ListenAndServe(addr, h.Router(auth, limiter)); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}
