// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"ai-video-queue/internal/config"
	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/domain/ports/repository"
	aiAdapters "ai-video-queue/internal/infra/adapters/ai"
	"ai-video-queue/internal/infra/adapters/notify"
	tele "ai-video-queue/internal/infra/adapters/telegram"
	"ai-video-queue/internal/infra/adapters/twilio"
	"ai-video-queue/internal/infra/api"
	apiv1 "ai-video-queue/internal/infra/api/apiv1"
	"ai-video-queue/internal/infra/db/memory"
	pg "ai-video-queue/internal/infra/db/postgres"
	"ai-video-queue/internal/infra/events"
	"ai-video-queue/internal/infra/i18n"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/infra/metrics"
	"ai-video-queue/internal/infra/ratelimit"
	red "ai-video-queue/internal/infra/redis"
	"ai-video-queue/internal/infra/sched"
	"ai-video-queue/internal/infra/worker"
	"ai-video-queue/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop generation without a token)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Core state ----
	store := memory.NewJobStore()
	msgs, err := i18n.Default()
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	hub := events.NewHub(logger)

	// ---- Rate limiting (Redis when configured, in-process otherwise) ----
	var limiter adapter.RateLimiter
	var redisClient *red.Client
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		limiter = red.NewRateLimiter(redisClient, cfg.Intake.RateLimit, cfg.Intake.RateWindow)
		logger.Info().Msg("rate limiter: redis")
	} else {
		limiter = ratelimit.NewLocal(cfg.Intake.RateLimit, cfg.Intake.RateWindow)
		logger.Info().Msg("rate limiter: in-process")
	}

	// ---- Optional Postgres archive ----
	var archive interface {
		repository.JobArchive
		repository.ArchiveReader
	}
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		repo := pg.NewJobArchiveRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("archive schema")
		}
		archive = repo
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)
		logger.Info().Msg("job archive: postgres")
	}

	// ---- Generation ----
	gen, err := aiAdapters.NewFromConfig(ctx, cfg.Generation, cfg.Runtime.Dev, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("generation adapter")
	}
	logger.Info().Str("provider", gen.Name()).Msg("generation adapter ready")

	// ---- Intake ----
	classifier := usecase.NewClassifier(cfg.Intake.MinPromptLength)
	intakeUC := usecase.NewIntakeUseCase(store, classifier, msgs, limiter, hub, logger)

	// ---- Notifiers ----
	router := notify.NewRouter(notify.NewLogNotifier(logger))
	var bot *tele.RealTelegramBotAdapter
	if cfg.Bot.Token != "" {
		bot, err = tele.NewRealTelegramBotAdapter(cfg.Bot.Token, intakeUC, cfg.Bot.Workers, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		router.Handle(tele.ChannelPrefix, bot)
	}
	if cfg.Twilio.AccountSID != "" {
		router.Handle(twilio.ChannelPrefix, twilio.NewClient(cfg.Twilio, logger))
	}

	// ---- Dispatcher & reaper ----
	dispatchUC := usecase.NewDispatchUseCase(store, gen, router, msgs, hub, usecase.DispatchOptions{
		Style: adapter.StyleConfig{
			NegativePrompt: cfg.Generation.NegativePrompt,
			AspectRatio:    cfg.Generation.AspectRatio,
			DurationSecs:   cfg.Generation.DurationSecs,
		},
		GenerationTimeout: cfg.Generation.Timeout,
	}, logger)

	var jobArchive repository.JobArchive
	var archiveReader repository.ArchiveReader
	if archive != nil {
		jobArchive, archiveReader = archive, archive
	}
	reaperUC := usecase.NewReaperUseCase(store, jobArchive, cfg.Reaper.Retention, cfg.Reaper.StuckAfter, logger)

	// one worker: at most one job is ever generating
	dispatchPool := worker.NewPool(1, 1, logger)
	dispatchPool.Start(ctx)
	dispatcher := worker.NewDispatchWorker(cfg.Dispatcher.TickInterval, dispatchUC, dispatchPool, logger)
	reaper := sched.NewReaperWorker(cfg.Reaper.Interval, reaperUC, logger)

	var wg sync.WaitGroup
	runLoop := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("loop", name).Msg("background loop stopped")
			}
		}()
	}
	runLoop("dispatch", dispatcher.Run)
	runLoop("reaper", reaper.Run)

	// ---- Telegram polling ----
	if bot != nil {
		if err := bot.SetMenuCommands(ctx); err != nil {
			logger.Warn().Err(err).Msg("set telegram commands")
		}
		runLoop("telegram", bot.StartPolling)
	}

	// ---- HTTP ----
	var auth *apiv1.AuthManager
	if cfg.HTTP.AdminSecret != "" {
		auth = apiv1.NewAuthManager(cfg.HTTP.AdminSecret)
	} else {
		logger.Warn().Msg("http.admin_secret is empty; admin routes are unauthenticated")
	}
	v1 := apiv1.NewServer(apiv1.Deps{
		Intake:           intakeUC,
		Store:            store,
		Dispatch:         dispatcher,
		Reaper:           reaperUC,
		Archive:          archiveReader,
		TwilioAuthToken:  cfg.Twilio.AuthToken,
		TwilioWebhookURL: cfg.Twilio.WebhookURL,
	}, logger)
	server := api.NewServer(cfg.HTTP, api.NewRouter(cfg.HTTP, v1, auth, hub, logger), logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigc:
		logger.Info().Str("signal", s.String()).Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	hub.Close()
	wg.Wait()
	waitPool(shutdownCtx, dispatchPool, logger)

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		pool.Close()
	}
	logger.Info().Msg("bye")
}

// waitPool lets an in-flight job finish unless the shutdown deadline passes first.
func waitPool(ctx context.Context, p *worker.Pool, logger *zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn().Msg("dispatch still running at shutdown deadline; abandoning job")
	}
}
