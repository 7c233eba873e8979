package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waypoint/config"
	"waypoint/cron"
	"waypoint/database"
	planRepo "waypoint/database/repository/plan"
	"waypoint/handlers"
	"waypoint/routes"
	"waypoint/services/agent"
	"waypoint/services/cache"
	"waypoint/services/collector"
	"waypoint/services/intelligence"
	"waypoint/services/planning"
	"waypoint/services/processor"
	"waypoint/services/providers"
	"waypoint/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitCache()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	store := cache.NewRedisStore(utils.GetCacheClient())
	registry := providers.NewHTTPRegistry(
		config.AppConfig.ProviderPrimaryURL,
		config.AppConfig.ProviderScraperURL,
		time.Duration(config.AppConfig.ProviderTimeoutSeconds)*time.Second,
	)

	// Without a model key every day entry comes from the fallback builders.
	var requester intelligence.Requester
	if config.AppConfig.GeminiAPIKey != "" {
		gemini, err := intelligence.NewGeminiClient(rootCtx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
		if err != nil {
			logger.Fatal("main: failed to initialize generative model client", zap.Error(err))
		}
		defer gemini.Close()
		requester = intelligence.NewCachedRequester(
			gemini,
			store,
			time.Duration(config.AppConfig.AICacheTTL)*time.Minute,
			logger.Named("ai"),
		)
	} else {
		logger.Warn("main: GEMINI_API_KEY not set, daily details use fallback entries")
	}

	archetypes, err := planning.LoadArchetypes(config.AppConfig.ArchetypesFile)
	if err != nil {
		logger.Fatal("main: failed to load plan archetypes", zap.Error(err))
	}
	seed := config.AppConfig.PlanRandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	dataCollector := collector.NewDataCollector(store, registry, logger.Named("collector"), config.AppConfig.CollectorDedupInFlight)
	repo := planRepo.NewMongoPlanRepo()
	agentSvc := agent.NewAgentService(
		repo,
		dataCollector,
		processor.NewDataProcessor(logger.Named("processor")),
		planning.NewPlanGenerator(archetypes, seed, logger.Named("generator")),
		nil,
		planning.NewDetailer(requester, config.AppConfig.DetailTopVariants, logger.Named("detailer")),
		logger.Named("agent"),
	)

	redisOpt := utils.QueueRedisOpt()
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	worker := cron.InitPlanWorker(redisOpt, agentSvc, dataCollector)
	scheduler, err := cron.InitScheduler(redisOpt)
	if err != nil {
		logger.Fatal("main: failed to start maintenance scheduler", zap.Error(err))
	}

	utils.StartHealthMonitor(rootCtx, utils.GetCacheClient(), database.MongoClient)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	planHandler := &handlers.PlanHandler{
		Repo:     repo,
		AgentSvc: agentSvc,
		Queue:    queue,
		Logger:   logger.Named("http"),
	}
	collectHandler := &handlers.CollectionHandler{
		Queue:     queue,
		Inspector: inspector,
		Logger:    logger.Named("http"),
	}
	routes.RegisterRoutes(router, handlers.NewHandlerBundle(planHandler, collectHandler))

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	scheduler.Shutdown()
	worker.Shutdown()
	stop()

	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}
	logger.Sugar().Info("main: server stopped gracefully")
}
