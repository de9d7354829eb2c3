package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"collabtodo/internal/auth"
	"collabtodo/internal/config"
	"collabtodo/internal/repository"
	"collabtodo/internal/server"
	"collabtodo/internal/service"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	visibilitySvc := service.NewVisibilityService(groupRepo, taskRepo)
	userSvc := service.NewUserService(userRepo, groupRepo, taskRepo)
	groupSvc := service.NewGroupService(groupRepo, userRepo)
	taskSvc := service.NewTaskService(taskRepo, visibilitySvc)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	srv := server.New(log, userSvc, groupSvc, taskSvc, visibilitySvc, tokens)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.PurgeInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		purged, err := taskSvc.PurgeExpired(jobCtx, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("purge sweep")
			return
		}
		if purged > 0 {
			log.Info().Int64("purged", purged).Msg("purge sweep")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule purge sweep")
	}
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("collabtodo started")
	if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
