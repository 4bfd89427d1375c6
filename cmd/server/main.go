package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/campus-apps/coursebook/internal/app"
	"github.com/campus-apps/coursebook/internal/config"
	"github.com/campus-apps/coursebook/internal/ctxutil"
	"github.com/campus-apps/coursebook/internal/db"
	"github.com/campus-apps/coursebook/internal/gradebook"
	"github.com/campus-apps/coursebook/internal/jobs"
	"github.com/campus-apps/coursebook/internal/logging"
	"github.com/campus-apps/coursebook/internal/models"
	"github.com/campus-apps/coursebook/internal/notify"
	"github.com/campus-apps/coursebook/internal/observability"
)

const release = "coursebook@dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Sugar.Warnw("sentry init failed", "err", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("db connect failed", "err", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		lg.Sugar.Fatalw("migrations failed", "err", err)
	}

	seedCtx, cancel := ctxutil.WithDBTimeout(ctx)
	courseID, err := db.EnsureCourse(seedCtx, database, models.Course{
		Code:     cfg.CourseCode,
		Name:     cfg.CourseName,
		Semester: cfg.CourseSemester,
		Year:     cfg.CourseYear,
	})
	cancel()
	if err != nil {
		lg.Sugar.Fatalw("course seed failed", "err", err)
	}
	lg.Sugar.Infow("active course ready", "course_id", courseID, "code", cfg.CourseCode)

	var opts []gradebook.Option
	if cfg.BotToken != "" && cfg.NotifyChatID != 0 {
		tn, err := notify.NewTelegram(cfg.BotToken, cfg.NotifyChatID, lg.Named("notify"))
		if err != nil {
			lg.Sugar.Warnw("telegram notifier disabled", "err", err)
		} else {
			opts = append(opts, gradebook.WithNotifier(tn))
		}
	}
	svc := gradebook.New(database, lg.Named("gradebook"), opts...)

	runner := jobs.New(ctx, lg.Named("jobs"))
	runner.Every(30*time.Second, "db_ping", jobs.PingDB(database))
	runner.Every(time.Minute, "regrade_backlog", jobs.RefreshRegradeBacklog(database))

	app.StartHTTP(ctx, cfg.HTTPAddr, database, svc)
	lg.Sugar.Infow("coursebook up", "addr", cfg.HTTPAddr, "env", cfg.Env)

	<-ctx.Done()
	lg.Sugar.Info("shutting down")
}
