package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/api"
	"github.com/Efimish/whisper-backend/internal/controller"
	"github.com/Efimish/whisper-backend/internal/migrations"
	"github.com/Efimish/whisper-backend/internal/service"
	"github.com/Efimish/whisper-backend/internal/storage/postgres"
	redisstore "github.com/Efimish/whisper-backend/internal/storage/redis"
	"github.com/Efimish/whisper-backend/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	defer dbCleanup()

	if err := migrations.RunMigrations(db, logger, "./internal/migrations/sql"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	defer redisCleanup()

	// The process must not serve traffic without verifiable signing keys.
	keys, err := service.LoadKeys(util.NewKeysConfig(), logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	storage := postgres.NewStorage(db)

	tokenService := service.NewTokenService(util.NewTokenConfig(), keys)
	passwordHasher := service.NewPasswordHasher(util.NewHasherConfig(), logger)
	deviceInfo := service.NewDeviceInfoService(
		redisstore.NewLocationCache(redisClient),
		util.NewLocationConfig(),
		logger,
	)
	authService := service.NewAuthService(storage, tokenService, passwordHasher, deviceInfo, logger)
	healthService := service.NewHealthService(db, redisClient, deviceInfo)

	ctrl := controller.NewController(logger, authService, healthService)
	authMiddleware := api.NewAuthMiddleware(tokenService, storage, logger)

	apiServer := api.NewAPI(ctrl, authMiddleware, util.NewServerConfig(), logger)
	apiServer.Run(ctx)
}
