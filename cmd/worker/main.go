package main

import (
	"context"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"castforge/internal/ai"
	"castforge/internal/config"
	"castforge/internal/db"
	"castforge/internal/logger"
	"castforge/internal/service"
	"castforge/internal/storage"
	"castforge/internal/worker"
	"castforge/pkg/tasks"
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

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})
	defer client.Close()

	podcasts := db.NewPodcastStore(conn)
	versions := db.NewVersionStore(conn)
	jobs := db.NewJobStore(conn)
	documents := db.NewDocumentStore(conn)

	llm := ai.NewLLMClient(log, ai.LLMOptions{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
	})
	tts := ai.NewTTSClient(log, ai.TTSOptions{
		BaseURL: cfg.TTS.BaseURL,
		APIKey:  cfg.TTS.APIKey,
		Model:   cfg.TTS.Model,
	})

	var blobs storage.Store
	if cfg.Storage.Backend == "s3" {
		blobs, err = storage.NewS3Store(context.Background(), cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.S3PublicBaseURL)
		if err != nil {
			log.Fatalw("failed to init s3 storage", "error", err)
		}
	} else {
		blobs = storage.NewLocalStore(cfg.Storage.AudioDir, cfg.Server.BaseURL)
	}

	orchestrator := service.NewOrchestrator(log, podcasts, versions, documents, llm, tts, blobs)
	taskHandler := worker.NewTaskHandler(log, orchestrator, jobs, versions, client)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		asynq.Config{
			// Generation steps hold an LLM or TTS connection open for a
			// while; keep concurrency modest.
			Concurrency: 4,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := 5 * time.Minute
				maxDelay := 24 * time.Hour
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
						break
					}
				}
				log.Infow("task retry scheduled", "type", task.Type(), "attempt", n+1, "delay", delay)
				return delay
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeGenerateScript, taskHandler.HandleGenerateScriptTask)
	mux.HandleFunc(tasks.TypeGenerateAudio, taskHandler.HandleGenerateAudioTask)
	mux.HandleFunc(tasks.TypeReapStaleJobs, taskHandler.HandleReapStaleJobsTask)

	log.Infow("worker starting", "commit", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalw("worker exited", "error", err)
	}
}
