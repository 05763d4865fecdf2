package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/BadissRH/easypm/config"
	"github.com/BadissRH/easypm/handlers"
	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/repositories"
	"github.com/BadissRH/easypm/repositories/memory"
	"github.com/BadissRH/easypm/services"
)

type stores struct {
	users         repositories.UserStore
	projects      repositories.ProjectStore
	tasks         repositories.TaskStore
	activity      repositories.ActivityStore
	authEvents    repositories.AuthEventStore
	tokens        repositories.TokenStore
	notifications repositories.NotificationStore
	closers       []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	envFile := flag.String("env", ".env", "optional env file loaded before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_LOAD_FAILED, Description: Failed to load configuration: %v", err)
	}
	logging.InitLogger("easypm", cfg.LogFile, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FAILED, Description: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	activityBreaker := services.NewBreaker("activity-log", 30*time.Second)
	notificationBreaker := services.NewBreaker("notifications", 30*time.Second)

	var mailer services.Mailer = services.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = &services.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}
	mailer = &services.BreakerMailer{Next: mailer, Breaker: services.NewBreaker("smtp", time.Minute)}

	activity := services.NewActivityService(st.activity, st.projects, st.users, activityBreaker, nil)
	notifications := services.NewNotificationService(st.notifications, notificationBreaker, nil)
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTTTL, nil)

	userService := services.NewUserService(st.users, st.projects, st.tasks, st.tokens, st.authEvents, activity, jwtService, mailer)
	userService.FrontendURL = cfg.FrontendURL
	if cfg.PasswordBlacklistFile != "" {
		blackList, err := services.LoadBlackList(cfg.PasswordBlacklistFile)
		if err != nil {
			logging.Logger.Warnf("Event ID: BLACKLIST_LOAD_FAILED, Description: Failed to load password blacklist %s: %v", cfg.PasswordBlacklistFile, err)
		} else {
			userService.BlackList = blackList
			logging.Logger.Infof("Event ID: BLACKLIST_LOADED, Description: Loaded %d blacklisted passwords", len(blackList))
		}
	}

	if cfg.AdminEmail != "" {
		if err := userService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	router := handlers.NewRouter(handlers.Services{
		Users:         userService,
		Projects:      services.NewProjectService(st.projects, st.tasks, st.users, activity, nil),
		Tasks:         services.NewTaskService(st.tasks, st.projects, activity, notifications, nil),
		Activity:      activity,
		Reports:       services.NewReportService(st.projects, st.tasks, st.users, nil),
		Notifications: notifications,
	}, cfg.CORSOrigin)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: Server is running on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores connects the configured backends. Notifications use Cassandra only when
// CASSANDRA_HOSTS is set.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}

	switch cfg.StoreBackend {
	case "memory":
		logging.Logger.Warnf("Event ID: MEMORY_STORE, Description: Using in-memory stores; data is lost on restart")
		st.users = memory.NewUserStore()
		st.projects = memory.NewProjectStore()
		st.tasks = memory.NewTaskStore()
		st.activity = memory.NewActivityStore()
		st.authEvents = memory.NewAuthEventStore()
		st.tokens = memory.NewTokenStore()
	default:
		client, err := repositories.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logging.Logger.Errorf("Event ID: MONGO_DISCONNECT_FAILED, Description: %v", err)
			}
		})

		db := client.Database(cfg.MongoDBName)
		if err := repositories.EnsureIndexes(ctx, db); err != nil {
			st.close()
			return nil, err
		}
		st.users = repositories.NewUserRepo(db)
		st.projects = repositories.NewProjectRepo(db)
		st.tasks = repositories.NewTaskRepo(db)
		st.activity = repositories.NewActivityRepo(db)
		st.authEvents = repositories.NewAuthEventRepo(db)
		st.tokens = repositories.NewTokenRepo(db)
	}

	hosts := cfg.CassandraHostList()
	if len(hosts) == 0 {
		st.notifications = memory.NewNotificationStore()
		return st, nil
	}
	repo, err := repositories.NewNotificationRepo(hosts, cfg.CassandraKeyspace)
	if err != nil {
		st.close()
		return nil, err
	}
	st.closers = append(st.closers, repo.CloseSession)
	if err := repo.CreateTable(); err != nil {
		st.close()
		return nil, err
	}
	st.notifications = repo
	return st, nil
}
