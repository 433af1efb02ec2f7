package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/MiSArch/shoppingcart/internal/auth"
	c "github.com/MiSArch/shoppingcart/internal/cache"
	"github.com/MiSArch/shoppingcart/internal/config"
	"github.com/MiSArch/shoppingcart/internal/event"
	gql "github.com/MiSArch/shoppingcart/internal/graphql"
	"github.com/MiSArch/shoppingcart/internal/logger"
	"github.com/MiSArch/shoppingcart/internal/repository"
	s "github.com/MiSArch/shoppingcart/internal/service"
)

const schemaPath = "./schemas/shoppingcart.graphql"

func main() {
	generateSchema := flag.Bool("generate-schema", false, "write the federated GraphQL schema to "+schemaPath+" and exit")
	flag.Parse()

	if *generateSchema {
		if err := gql.WriteSchema(schemaPath); err != nil {
			log.Fatalf("Failed to generate schema: %v", err)
		}
		log.Printf("GraphQL schema written to %s", schemaPath)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logg := logger.New("shoppingcart", cfg.Log.Level)

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	logg.Info("connected to MongoDB", "uri", cfg.Mongo.URI, "db", cfg.Mongo.DB)

	userRepo := repository.NewMongoUserRepository(mongoDB)
	variantRepo := repository.NewMongoProductVariantRepository(mongoDB)

	if err := userRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	cartCache := setupCache(ctx, cfg, logg)

	queryService := s.NewQueryService(userRepo, cartCache, logg)
	mutationService := s.NewMutationService(userRepo, variantRepo, cartCache, logg)
	eventService := event.NewService(userRepo, variantRepo, cartCache, logg)

	schema, err := gql.NewSchema(queryService, mutationService)
	if err != nil {
		log.Fatalf("Failed to build GraphQL schema: %v", err)
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/", gql.NewHandler(schema))
	eventService.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.Info("shoppingcart service listening", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down shoppingcart service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		logg.Warn("failed to disconnect from MongoDB", "error", err)
	}
	logg.Info("shoppingcart service stopped")
}

// setupCache connects to Redis when an address is configured; otherwise the
// service runs with a no-op cache and every read goes to MongoDB.
func setupCache(ctx context.Context, cfg *config.Config, logg *slog.Logger) c.CartCache {
	if cfg.Redis.Addr == "" {
		logg.Info("REDIS_ADDR not set, cart caching disabled")
		return c.NoopCache{}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	logg.Info("connected to Redis", "addr", cfg.Redis.Addr)
	return c.NewRedisCache(redisClient)
}
