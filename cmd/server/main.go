package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quizduel/internal/match_management"
	"quizduel/internal/match_store"
	"quizduel/internal/metrics"
	"quizduel/internal/quiz"
	"quizduel/internal/routers"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// loadQuestions prefers the Mongo question database and falls back to the
// built-in set when none is configured.
func loadQuestions(logger *zap.Logger) quiz.Source {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		logger.Info("MONGO_URI not set, using built-in question set")
		return quiz.NewStaticSource(quiz.DefaultQuestions())
	}

	source, err := quiz.LoadMongoSource(context.Background(), uri,
		env("QUESTIONS_DB_NAME", "quizduel"), env("QUESTIONS_COLLECTION", "questions"))
	if err != nil {
		logger.Warn("failed to load questions from mongo, using built-in set", zap.Error(err))
		return quiz.NewStaticSource(quiz.DefaultQuestions())
	}
	logger.Info("loaded question set from mongo", zap.Int("total", source.Total()))
	return source
}

func main() {
	godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	jwtSecret := []byte(env("JWT_SECRET", "dev-secret"))

	rdb := redis.NewClient(&redis.Options{
		Addr: env("REDIS_ADDR", "localhost:6379"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	questions := loadQuestions(logger)

	store := match_store.NewRedisMatchStore(rdb, logger)
	manager := match_management.NewMatchManager(store, logger)
	synchronizer := match_management.NewRoundSynchronizer(store, questions.Total(), logger)
	handler := match_management.NewHandler(manager, synchronizer, store, questions, jwtSecret, logger)

	janitor := match_management.NewJanitor(store,
		envDuration("FINISHED_MATCH_TTL", time.Hour),
		envDuration("WAITING_MATCH_TTL", 24*time.Hour),
		logger)
	if err := janitor.Start(); err != nil {
		logger.Fatal("failed to start janitor", zap.Error(err))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	router.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ready")) })
	router.Handle("/metrics", metrics.Handler())
	routers.MatchRoutes(router, handler, jwtSecret)

	addr := ":" + env("PORT", "8080")
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket streams stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("match service starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("match service shutting down...")
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("match service exited")
}
