package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/likering/backend/internal/auth"
	"github.com/likering/backend/internal/config"
	"github.com/likering/backend/internal/products"
	"github.com/likering/backend/internal/store"
)

// A dependency that fails at boot is logged and left nil; the routes that
// need it answer 503 instead of taking the whole process down.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	var accounts *store.AccountStore
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Printf("postgres connect: %v (user endpoints unavailable)", err)
	} else {
		defer pgPool.Close()
		accounts = store.NewAccountStore(pgPool)
		if err := accounts.Migrate(ctx); err != nil {
			log.Printf("postgres migrate: %v", err)
		}
	}

	// ── MongoDB ──────────────────────────────────────────────
	var productStore *store.ProductStore
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Printf("mongo connect: %v (product endpoints unavailable)", err)
	} else {
		defer mongoClient.Disconnect(ctx)
		productStore = store.NewProductStore(mongoClient.Database(cfg.MongoDB))
	}

	// ── Redis ────────────────────────────────────────────────
	var limiter auth.LoginLimiter
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Printf("redis connect: %v (login throttle disabled)", err)
	} else {
		defer rdb.Close()
		limiter = auth.NewThrottle(rdb)
	}

	// ── MinIO ────────────────────────────────────────────────
	var images auth.ImageStore
	imageStore, err := store.NewImageStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL,
	)
	if err != nil {
		log.Printf("minio connect: %v (avatar uploads disabled)", err)
	} else {
		images = imageStore
	}

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// User routes
	r.Route("/api/usuarios", func(r chi.Router) {
		if accounts == nil {
			r.HandleFunc("/*", unavailable)
			r.HandleFunc("/", unavailable)
			return
		}
		h := auth.NewHandler(auth.NewService(accounts, images, limiter))
		r.Post("/registro", h.Register)
		r.Post("/", h.Register)
		r.Post("/login", h.Login)
		r.Get("/buscar", h.Search)
		r.Get("/", h.List)
	})

	// Product routes
	r.Route("/api/productos", func(r chi.Router) {
		if productStore == nil {
			r.HandleFunc("/*", unavailable)
			r.HandleFunc("/", unavailable)
			return
		}
		h := products.NewHandler(productStore)
		r.Get("/", h.List)
		r.Post("/", h.Create)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("likering backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	http.Error(w, `{"error":"service temporarily unavailable"}`, http.StatusServiceUnavailable)
}
