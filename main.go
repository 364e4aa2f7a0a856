package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-maze/api"
	api_i "github.com/beka-birhanu/vinom-maze/api/i"
	levelapi "github.com/beka-birhanu/vinom-maze/api/level"
	streamapi "github.com/beka-birhanu/vinom-maze/api/stream"
	"github.com/beka-birhanu/vinom-maze/config"
	logger "github.com/beka-birhanu/vinom-maze/infrastruture/log"
	"github.com/beka-birhanu/vinom-maze/infrastruture/presence"
	"github.com/beka-birhanu/vinom-maze/room"
	"github.com/beka-birhanu/vinom-maze/service/i"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// Global variables for dependencies
var (
	redisClient      *redis.Client
	presenceIndex    i.Presence
	registry         *room.Registry
	levelController  api_i.Controller
	streamController api_i.Controller
	router           *api.Router
	appLogger        i.Logger
)

func newLogger(prefix, color string) i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initPresence(ctx context.Context) {
	if config.Envs.RedisAddr == "" {
		presenceIndex = presence.NewLocalPresence()
		appLogger.Warning("REDIS_ADDR not set, keeping presence in memory")
		return
	}

	redisClient = redis.NewClient(&redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
		DB:       config.Envs.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}

	var err error
	presenceIndex, err = presence.NewRedisPresence(redisClient, "vinom-maze", config.Envs.PresenceTTLSeconds)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating redis presence: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis presence index")
}

func initRegistry() {
	registry = room.NewRegistry(&room.Config{
		Logger:   newLogger("ROOM", config.ColorCyan),
		Presence: presenceIndex,
	})
	appLogger.Info("Room registry initialized")
}

func initLevelController() {
	levelController = levelapi.NewController(levelapi.Config{
		DailySalt: config.Envs.DailySeedSalt,
	})
	appLogger.Info("Level controller initialized")
}

func initStreamController() {
	var err error
	streamController, err = streamapi.NewController(streamapi.Config{
		Registry:     registry,
		Presence:     presenceIndex,
		Logger:       newLogger("STREAM", config.ColorPurple),
		SendBuffer:   config.Envs.WSSendBuffer,
		WriteTimeout: time.Duration(config.Envs.WSWriteTimeoutMS) * time.Millisecond,
		PongTimeout:  time.Duration(config.Envs.WSPongTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating stream controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Stream controller initialized")
}

func initRouter() {
	gin.SetMode(config.Envs.GinMode)
	router = api.NewRouter(api.Config{
		Addr:        fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:     "/api",
		Controllers: []api_i.Controller{levelController, streamController},
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	initPresence(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}
	initRegistry()
	initLevelController()
	initStreamController()
	initRouter()

	errs := make(chan error, 1)
	go func() {
		appLogger.Info(fmt.Sprintf("Listening on %s:%v", config.Envs.HostIP, config.Envs.RESTPort))
		errs <- router.Run()
	}()

	select {
	case err := <-errs:
		if err != nil {
			appLogger.Error(fmt.Sprintf("Starting server: %v", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		appLogger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Stopping server: %v", err))
	}
	registry.Close()
}
