package main

import (
	"os"

	"github.com/hibiken/asynq"

	"castforge/internal/config"
	"castforge/internal/logger"
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

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		&asynq.SchedulerOpts{},
	)

	reapTask, err := tasks.NewReapStaleJobsTask()
	if err != nil {
		log.Fatalw("could not create reap task", "error", err)
	}
	// Catch jobs whose worker died mid-run.
	if _, err := scheduler.Register("@every 10m", reapTask); err != nil {
		log.Fatalw("could not register reap task", "error", err)
	}

	log.Infow("scheduler starting", "commit", CommitSHA)
	if err := scheduler.Run(); err != nil {
		log.Fatalw("scheduler exited", "error", err)
	}
}
