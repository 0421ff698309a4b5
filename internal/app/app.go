package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/config"
	"github.com/ykvlv/oazis/internal/hydration"
	"github.com/ykvlv/oazis/internal/reminder"
	"github.com/ykvlv/oazis/internal/scheduler"
	"github.com/ykvlv/oazis/internal/store"
	"github.com/ykvlv/oazis/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newHTTPHandler(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

// newHTTPHandler serves liveness and Prometheus metrics.
func newHTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// wire builds the hydration service, the Telegram router and the reminder
// scheduler around repo, and registers a job for every known user.
func (a *App) wire(ctx context.Context, repo store.Repo) error {
	svc := hydration.New(store.NewPooled(repo, a.cfg.DBWorkers), a.cfg.Defaults(), a.log)
	a.router = telegram.NewRouter(a.bot, a.log, svc, a.cfg.SendRatePerSecond)
	eval := reminder.NewEvaluator(svc, a.router, a.log)
	a.sched = scheduler.New(svc, eval, a.log, scheduler.WithMaxConcurrent(a.cfg.MaxConcurrentEvaluations))

	svc.AttachScheduler(a.sched)
	a.router.AttachScheduler(a.sched)

	if err := a.router.RegisterCommands(); err != nil {
		a.log.Warn("register bot commands failed", zap.Error(err))
	}
	return a.sched.ScheduleForAllUsers(ctx)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting oazis",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("timezone", a.cfg.Timezone),
		zap.Int("start_hour", a.cfg.HydrationStartHour),
		zap.Int("end_hour", a.cfg.HydrationEndHour),
		zap.Int("interval_min", a.cfg.ReminderIntervalMinutes),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.wire(ctx, repo); err != nil {
		_ = a.repo.Close()
		return err
	}
	go a.sched.Run(ctx)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
