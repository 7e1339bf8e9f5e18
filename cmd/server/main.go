package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"run4recht/internal/auth"
	"run4recht/internal/config"
	cronrunner "run4recht/internal/cron"
	"run4recht/internal/db"
	"run4recht/internal/handler"
	"run4recht/internal/logger"
	"run4recht/internal/repository"
	gormrepository "run4recht/internal/repository/gorm"
	"run4recht/internal/repository/memory"
	"run4recht/internal/service"

	_ "run4recht/docs"
)

func main() {
	cfgPath := os.Getenv("R4R_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("R4R_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	decimal.MarshalJSONWithoutQuotes = true
	loc := cfg.App.Location()

	var (
		store  repository.Repository
		gormDB *gorm.DB
	)
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		mem := memory.New()
		if err := seedDemo(mem, cfg.Auth.DemoPassword, time.Now().In(loc)); err != nil {
			log.Fatal("demo seed failed", zap.Error(err))
		}
		store = mem
		log.Warn("db.dsn is empty, using the in-memory demo store")
	} else {
		dbConn, err := db.Open(cfg.DB)
		if err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			log.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			log.Fatal("auto-migrate failed", zap.Error(err))
		}
		store = gormrepository.New(dbConn.Gorm)
		gormDB = dbConn.Gorm
	}

	if !cfg.Auth.Disabled && strings.TrimSpace(cfg.Auth.Secret) == "" {
		log.Fatal("auth.secret is required unless auth.disabled is set")
	}
	jwt := auth.JWT{Secret: []byte(cfg.Auth.Secret), TokenTTL: cfg.Auth.TokenTTL}

	rankingSvc, err := service.NewRankingService(store, cfg.Ranking.CacheSize, logger.Component(log, "ranking"))
	if err != nil {
		log.Fatal("ranking service init failed", zap.Error(err))
	}
	tournamentSvc := &service.TournamentService{Repo: store, Logger: logger.Component(log, "tournament"), Location: loc}
	statisticsSvc := &service.StatisticsService{
		Repo:       store,
		Ranking:    rankingSvc,
		Tournament: tournamentSvc,
		Logger:     logger.Component(log, "statistics"),
		Location:   loc,
	}
	hub := &service.Hub{Buffer: cfg.Ranking.StreamBuffer}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(auth.RequireBearer(jwt, cfg.Auth.Disabled))
	engine.Use(handler.WriteAuditMiddleware(logger.Component(log, "audit")))

	healthHandler := &handler.HealthHandler{DB: gormDB}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	authHandler := &handler.AuthHandler{
		Service: &service.AuthService{Repo: store, JWT: jwt, Logger: logger.Component(log, "auth")},
		Logger:  log,
	}
	authHandler.Register(engine)
	directoryHandler := &handler.DirectoryHandler{Service: &service.DirectoryService{Repo: store}, Logger: log}
	directoryHandler.Register(engine)
	profileHandler := &handler.ProfileHandler{Service: &service.ProfileService{Repo: store}, Logger: log}
	profileHandler.Register(engine)
	tournamentHandler := &handler.TournamentHandler{Service: tournamentSvc, Logger: log}
	tournamentHandler.Register(engine)
	statisticsHandler := &handler.StatisticsHandler{Service: statisticsSvc, Logger: log}
	statisticsHandler.Register(engine)
	rankingHandler := &handler.RankingHandler{Ranking: rankingSvc, Tournament: tournamentSvc, Hub: hub, Logger: log}
	rankingHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger.Component(log, "cron"), ctx)
	if cfg.Cron.Enabled {
		refresh := &service.RankingRefreshJob{
			Ranking:    rankingSvc,
			Tournament: tournamentSvc,
			Hub:        hub,
			Logger:     logger.Component(log, "ranking_refresh"),
		}
		if _, err := cronRunner.Add("ranking_refresh", cfg.Cron.RankingRefresh, refresh.RunOnce); err != nil {
			log.Warn("cron register ranking refresh failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server error", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,Idempotency-Key")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
