package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/config"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/routes"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/store"
	"github.com/cppla/inkpost/utils"
)

func main() {
	cfg := config.Load()

	logger, err := utils.InitLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.InitDatabase(cfg, config.Models()...)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	rc, err := utils.NewRedis(cfg)
	if err != nil {
		logger.Warn("redis unavailable, serving uncached", zap.Error(err))
	}
	cache := utils.NewCache(rc, utils.CacheOptions{
		TTL:         cfg.CacheTTL(),
		MaxFailures: uint32(cfg.CacheBreakerMaxFailures),
		OpenTimeout: time.Duration(cfg.CacheBreakerTimeoutSec) * time.Second,
	}, logger)

	offset, err := cfg.CivilOffset()
	if err != nil {
		logger.Fatal("invalid civil offset", zap.Error(err))
	}
	cal := calendar.New(offset, nil)
	ladder := gamification.DefaultLadder()
	catalog, err := gamification.NewCatalog(gamification.DefaultChallenges, cfg.ChallengeSelection, cfg.ChallengeShuffle)
	if err != nil {
		logger.Fatal("invalid challenge catalog", zap.Error(err))
	}
	engine := gamification.NewEngine(cfg.ChallengeMilestone, catalog)

	st := store.NewGormStore(db, cfg.MaxTxRetries, logger)
	streaks := services.NewStreakService(st, cal, engine, ladder, cache, logger.Named("streak"))
	follows := services.NewFollowService(st, cache, logger.Named("follow"), nil)

	var accessLog *zap.Logger
	if cfg.GinPath != "" {
		accessLog, err = utils.NewRollingFileLogger(utils.RotationConfig{
			Path:       cfg.GinPath,
			Level:      cfg.LogLevel,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		})
		if err != nil {
			logger.Warn("access log disabled", zap.Error(err))
		}
	}

	r := routes.SetupRouter(routes.Deps{
		Config:        cfg,
		DB:            db,
		Store:         st,
		Cache:         cache,
		Tokens:        utils.NewTokenIssuer(cfg.JWTSecret, utils.DefaultTokenTTL),
		Blacklist:     utils.NewTokenBlacklist(rc),
		Registrations: utils.NewRegistrationGuard(rc, time.Duration(cfg.RegisterCooldownSec)*time.Second, cfg.RegisterMaxPerIPPerDay),
		Calendar:      cal,
		Ladder:        ladder,
		Engine:        engine,
		Catalog:       catalog,
		Streaks:       streaks,
		Follows:       follows,
		AccessLog:     accessLog,
	})

	srv := utils.NewServer(":"+cfg.AppPort, r, logger)
	srv.OnShutdown(func() {
		if rc != nil {
			_ = rc.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.String("civil_offset", calendar.FormatOffset(offset)),
		zap.String("challenge_selection", catalog.Policy()))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
