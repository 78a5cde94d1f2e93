// File: carelink/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carelink/cache"
	"carelink/config"
	"carelink/cron"
	"carelink/handlers"
	"carelink/models"
	"carelink/routes"
	"carelink/services/medwatch"
	"carelink/services/notification"
	"carelink/services/planapi"
	"carelink/services/realtime"
	"carelink/services/reminder"
	"carelink/services/session"
	"carelink/services/sync"
	"carelink/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const reminderQueue = "reminders"

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Redis: plan cache, session, and the delta pub/sub channel.
	cacheClient := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	if err := cacheClient.Ping(rootCtx).Err(); err != nil {
		logger.Sugar().Fatalf("main: failed to connect to Redis: %v", err)
	}

	sessionStore := session.NewRedisSessionStore(cacheClient)
	planCache := cache.NewRedisPlanCache(cacheClient,
		time.Duration(config.AppConfig.CacheSnapshotTTLHr)*time.Hour)

	apiClient := planapi.NewClient(
		config.AppConfig.PlanAPIBaseURL,
		time.Duration(config.AppConfig.PlanAPITimeoutSec)*time.Second,
		func() string { return sessionStore.Token(rootCtx) },
	)

	engine := sync.NewDefaultPlanSyncService(
		apiClient,
		planCache,
		sessionStore,
		utils.RealClock(),
		logger,
		config.AppConfig.RetryMaxAttempts,
		config.RetryBaseDelay(),
	)

	// Push-based delta stream.
	rt := realtime.NewManager(cacheClient, config.AppConfig.DeltaChannel, logger)
	rt.SubscribeBatches(func(batch models.DeltaBatch) {
		for _, delta := range batch.Deltas {
			engine.ApplyDelta(rootCtx, delta)
		}
	})
	rt.SubscribeRefreshNeeded(func() {
		if _, err := engine.Refresh(rootCtx, models.SourceRealtime, true); err != nil {
			logger.Sugar().Debugf("main: refresh-needed signal failed: %v", err)
		}
	})
	rt.SubscribeStatus(func(s realtime.Status) {
		if s == realtime.Connected {
			// Catch up on anything missed while the channel was down.
			engine.RefreshIfVersionChanged(rootCtx, models.SourceRealtime)
		}
	})
	go rt.Run(rootCtx)

	// Polling fallback, torn down on sign-out.
	pollCtx, cancelPoll := context.WithCancel(rootCtx)
	engine.OnSignOut = cancelPoll
	poller := &sync.Poller{
		Sync:      engine,
		Session:   sessionStore,
		Clock:     utils.RealClock(),
		Interval:  config.PollInterval(),
		Connected: func() bool { return rt.ConnectionStatus() == realtime.Connected },
		Logger:    logger,
	}
	go poller.Run(pollCtx)

	// Medication reminders: asynq registry + FCM delivery worker.
	redisQueueOpt := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
	registry := reminder.NewAsynqRegistry(redisQueueOpt, reminderQueue, logger)
	reminderSvc := &reminder.DefaultReminderService{
		Registry: registry,
		Permissions: reminder.PermissionFunc(func(context.Context) bool {
			return config.AppConfig.RemindersEnabled
		}),
		Clock:        utils.RealClock(),
		Logger:       logger,
		Lookahead:    config.ReminderLookahead(),
		MaxScheduled: config.AppConfig.ReminderMaxScheduled,
		OverdueDelay: config.ReminderOverdueDelay(),
	}

	watcher := &medwatch.Watcher{
		Sync:      engine,
		Meds:      apiClient,
		Reminders: reminderSvc,
		Logger:    logger,
	}
	watcher.Start(rootCtx)

	if config.AppConfig.RemindersEnabled {
		fcm := utils.FirebaseInit()
		notifSvc, err := notification.NewDefaultNotificationService(fcm, config.AppConfig.HouseholdDeviceToken)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
		}
		cron.InitReminderWorker(notifSvc, reminderQueue)
	}

	// Hydrate from cache, then kick the initial refresh in the background.
	engine.Hydrate(rootCtx)
	go func() {
		if _, err := engine.Refresh(rootCtx, models.SourceInitial, false); err != nil {
			logger.Sugar().Warnf("main: initial refresh failed: %v", err)
		}
	}()

	// Local UI surface.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	planHandler := handlers.NewPlanHandler(engine)
	routes.RegisterRoutes(router, planHandler)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
