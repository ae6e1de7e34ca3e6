package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Tharoon321/worldpeace-api/cache"
	"github.com/Tharoon321/worldpeace-api/config"
	"github.com/Tharoon321/worldpeace-api/controllers"
	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/middleware"
	"github.com/Tharoon321/worldpeace-api/payments"
	"github.com/Tharoon321/worldpeace-api/store"
	"github.com/Tharoon321/worldpeace-api/utils"
)

// eventBacklog bounds the events waiting for the broker; beyond it events are dropped.
const eventBacklog = 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := config.NewLogger(cfg)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx := context.Background()

	// Connect to MongoDB
	client, db, err := config.ConnectDB(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("connect mongo")
	}
	mongoStore := store.NewMongo(db)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("ensure indexes")
	}

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.WithError(err).Fatal("token manager")
	}

	// Redis is optional: without it rate limits are per process and stats
	// are not cached.
	var (
		limiter      middleware.Limiter
		statsCache   cache.Cache = cache.Nop{}
		memLimiter   *middleware.MemoryLimiter
		redisCleanup func() error
	)
	redisClient, err := config.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	if redisClient != nil {
		limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
		statsCache = cache.NewRedis(redisClient, "worldpeace:")
		redisCleanup = redisClient.Close
		log.Info("using redis for rate limiting and stats cache")
	} else {
		memLimiter = middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		limiter = memLimiter
	}

	var publisher events.Publisher = events.LogPublisher{Log: log}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			log.WithError(err).Fatal("kafka publisher")
		}
		publisher = events.NewAsyncPublisher(kp, eventBacklog, log)
		log.WithField("brokers", cfg.KafkaBrokers).Info("publishing events to kafka")
	}

	settler := payments.NewSettler(mongoStore, payments.SimulatedProcessor{}, cfg.SettlementDelay, publisher, log)

	jobs := cron.New()
	if err := payments.RegisterSweeper(jobs, cfg.SettlementSweep, settler, log); err != nil {
		log.WithError(err).Fatal("register sweeper")
	}
	if memLimiter != nil {
		if _, err := jobs.AddFunc("@every 10m", memLimiter.Cleanup); err != nil {
			log.WithError(err).Fatal("register limiter cleanup")
		}
	}
	jobs.Start()

	deps := controllers.Deps{
		Store:     mongoStore,
		Tokens:    tokens,
		Settler:   settler,
		Publisher: publisher,
		Cache:     statsCache,
		Log:       log,
		Options: controllers.Options{
			BcryptCost:    cfg.BcryptCost,
			OTPTTL:        cfg.OTPTTL,
			StatsCacheTTL: cfg.StatsCacheTTL,
		},
	}
	mailer := utils.Mailer{Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Pass: cfg.SMTPPass}
	if mailer.Configured() {
		deps.Mailer = mailer
	} else {
		log.Warn("SMTP not configured; password reset codes are only logged")
	}

	router := controllers.NewRouter(controllers.New(deps), controllers.RouterConfig{
		AllowedOrigin: cfg.AllowedOrigin,
		Limiter:       limiter,
		Log:           log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine for graceful shutdown
	go func() {
		log.WithField("port", cfg.Port).Info("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}

	<-jobs.Stop().Done()
	// pending timers are dropped; the sweeper settles those donations on the next start
	settler.Stop()

	if err := publisher.Close(); err != nil {
		log.WithError(err).Warn("close publisher")
	}
	if redisCleanup != nil {
		if err := redisCleanup(); err != nil {
			log.WithError(err).Warn("close redis")
		}
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Warn("disconnect mongo")
	} else {
		log.Info("MongoDB disconnected")
	}

	log.Info("server exited")
}
