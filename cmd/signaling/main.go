package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/mesh-signaling/config"
	"github.com/mossy-p/mesh-signaling/internal/broker"
	"github.com/mossy-p/mesh-signaling/internal/handlers"
	"github.com/mossy-p/mesh-signaling/internal/logger"
	"github.com/mossy-p/mesh-signaling/internal/redis"
	signaling "github.com/mossy-p/mesh-signaling/internal/signal"
)

func main() {
	// Load configuration
	cfg := config.Load()

	loggerFactory := logger.NewFactory(cfg.LogLevel, os.Stdout)
	log := loggerFactory.NewLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := broker.NewHub(broker.HubConfig{
		SubscriberBuffer: cfg.Signal.SubscriberBuffer,
		LoggerFactory:    loggerFactory,
	})

	var out signaling.Broadcaster = hub
	switch cfg.Broker {
	case config.BrokerLocal:
	case config.BrokerRedis:
		client, err := redis.Connect(cfg.Redis)
		if err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		defer client.Close()
		log.Info("Redis connection established")

		relay := broker.NewRedisRelay(broker.RedisRelayConfig{
			Client:        client,
			Channel:       cfg.Redis.Channel,
			Hub:           hub,
			LoggerFactory: loggerFactory,
		})
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("redis relay stopped: %v", err)
				stop()
			}
		}()
		out = relay
	default:
		log.Errorf("unknown BROKER %q", cfg.Broker)
		os.Exit(1)
	}

	router := signaling.NewRouter(signaling.RouterConfig{
		Broadcaster:   out,
		LoggerFactory: loggerFactory,
	})

	srv := handlers.NewServer(handlers.Config{
		Router:            router,
		Hub:               hub,
		Signal:            cfg.Signal,
		LeaveOnDisconnect: cfg.LeaveOnDisconnect,
		LoggerFactory:     loggerFactory,
	})
	go srv.RunPollReaper(ctx)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	// Global CORS middleware (runs before routing)
	engine.Use(handlers.OriginFilter(cfg.AllowedOrigins))
	srv.RegisterRoutes(engine)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}()

	// Start server
	log.Infof("Starting WebRTC signaling server on port %s (endpoint %s, broker %s)",
		cfg.Port, cfg.Signal.Endpoint, cfg.Broker)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
