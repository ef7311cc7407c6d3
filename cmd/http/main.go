package main

import (
	"careflow-service/internal/app/config"
	"careflow-service/internal/app/delivery/http/controllers"
	"careflow-service/internal/app/delivery/http/middlewares"
	"careflow-service/internal/app/delivery/http/routers"
	"careflow-service/internal/app/drivers/database"
	"careflow-service/internal/app/drivers/logger"
	"careflow-service/internal/app/drivers/messaging"
	"careflow-service/internal/app/services/core/abandonment"
	"careflow-service/internal/app/services/core/flows"
	"careflow-service/internal/app/services/core/patients"
	"careflow-service/internal/app/services/core/providers"
	"careflow-service/internal/app/services/core/risk"
	"careflow-service/internal/app/services/shared/eventpublisher"
	"careflow-service/internal/app/services/shared/locker"
	"careflow-service/internal/app/services/shared/redis"
	"careflow-service/internal/pkg/utils"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	mongoDB := database.NewMongoDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrap := config.Bootstrap{
		Router:         chiRouter,
		MongoDB:        mongoDB,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Logger:         zapLogger,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}
	bootstrapingTheApp(&bootstrap)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error while closing connections: %v", err)
	}

	log.Println("Server exiting")
}

func bootstrapingTheApp(bootstrap *config.Bootstrap) {
	clock := utils.SystemClock{}

	// Shared services
	redisRepository := redis.NewRedisRepository(bootstrap.Redis)
	lockService := locker.NewLockService(redisRepository, bootstrap.Logger)
	eventPublisher, err := eventpublisher.NewRabbitMQEventPublisher(bootstrap.RabbitMQ, bootstrap.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Repositories
	flowMongoRepository := flows.NewFlowMongoRepository(bootstrap.MongoDB, bootstrap.DriverConfig.MongoDB.DbName)
	riskMongoRepository := risk.NewRiskAssessmentMongoRepository(bootstrap.MongoDB, bootstrap.DriverConfig.MongoDB.DbName)
	patientMongoRepository := patients.NewPatientProfileMongoRepository(bootstrap.MongoDB, bootstrap.DriverConfig.MongoDB.DbName)
	providerMongoRepository := providers.NewProviderMongoRepository(bootstrap.MongoDB, bootstrap.DriverConfig.MongoDB.DbName)

	// Provider
	providerCacheTTL := time.Duration(bootstrap.InternalConfig.App.ProviderCacheTTLMinutes) * time.Minute
	providerDirectory := providers.NewProviderDirectory(providerMongoRepository, redisRepository, providerCacheTTL, bootstrap.Logger)
	providerUsecase := providers.NewProviderUsecase(providerMongoRepository, providerDirectory, clock, bootstrap.Logger)
	providerController := controllers.NewProviderController(bootstrap.Logger, providerUsecase)

	// Flow
	riskScorer := risk.NewRiskScorer(risk.DefaultScoringTables(), clock, bootstrap.Logger)
	providerMatcher := providers.NewProviderMatcher(providers.DefaultMatchWeights(), bootstrap.Logger)
	flowStateMachine := flows.NewFlowStateMachine(riskScorer, providerMatcher, clock, bootstrap.Logger)
	flowUsecase := flows.NewFlowUsecase(
		flowMongoRepository,
		riskMongoRepository,
		patientMongoRepository,
		providerMongoRepository,
		providerDirectory,
		flowStateMachine,
		eventPublisher,
		clock,
		bootstrap.Logger,
	)
	flowController := controllers.NewFlowController(bootstrap.Logger, flowUsecase)

	// Middlewares and routes
	middlewares := middlewares.NewMiddlewares(bootstrap.Logger, bootstrap.InternalConfig)
	routers.SetupRoutes(bootstrap.Router, bootstrap.InternalConfig, middlewares, flowController, providerController)

	// Abandonment sweeper
	inactiveFor := time.Duration(bootstrap.InternalConfig.App.AbandonmentInactiveHours) * time.Hour
	lockTTL := time.Duration(bootstrap.InternalConfig.App.AbandonmentLockTTLMinutes) * time.Minute
	worker := abandonment.NewWorker(
		bootstrap.Logger,
		flowUsecase,
		lockService,
		inactiveFor,
		bootstrap.InternalConfig.App.AbandonmentCronSpec,
		lockTTL,
	)
	worker.Start(context.Background())
	bootstrap.WorkerStop = worker.Stop
}
