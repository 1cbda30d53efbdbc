package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"github.com/promptpix/api/internal/auth"
	"github.com/promptpix/api/internal/handlers"
	"github.com/promptpix/api/internal/repo"
	"github.com/promptpix/api/internal/storage"
	"github.com/promptpix/api/internal/vision"
	"github.com/promptpix/api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Initialize environment variables
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
		os.Exit(1)
	}
	accountID := os.Getenv("ACCOUNT_ID")
	accessKeyID := os.Getenv("ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("ACCESS_KEY_SECRET")

	// Chi
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Database connection
	dsn := os.Getenv("DSN")
	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey so the repo layer can classify them.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Auto migrate models
	if err := db.AutoMigrate(models.User{}, models.Post{}, models.Generation{}, models.PasswordReset{}); err != nil {
		slog.Error("Failed to auto migrate models", "error", err)
		os.Exit(1)
	}

	// Create custom HTTP client with TLS config
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
			CipherSuites: []uint16{
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			},
		},
	}
	httpClient := &http.Client{Transport: tr}

	// AWS S3 configuration (Cloudflare R2)
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithHTTPClient(httpClient),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Error("Failed to load S3 config", "error", err)
		os.Exit(1)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})

	blobs := storage.NewS3Store(client, os.Getenv("BUCKET_NAME"), os.Getenv("PUBLIC_URL"))

	var visionOpts []vision.Option
	if model := os.Getenv("VISION_MODEL"); model != "" {
		visionOpts = append(visionOpts, vision.WithModel(model))
	}
	describer := vision.NewClient(os.Getenv("OPENAI_API_KEY"), visionOpts...)

	users := repo.NewGormUserRepository(db)
	posts := repo.NewGormPostRepository(db)
	gens := repo.NewGormGenerationRepository(db)
	resets := repo.NewGormPasswordResetRepository(db)

	authHandler := handlers.NewAuthHandler(users, resets)
	userHandler := handlers.NewUserHandler(users)
	postHandler := handlers.NewPostHandler(posts)
	genHandler := handlers.NewGenerationHandler(gens, blobs, describer)

	// User auth
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/logout", authHandler.Logout)
		r.Get("/user", userHandler.Show)
	})

	// Available API routes for authenticated users
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(httprate.Limit(
			60,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			httprate.WithLimitHandler(rateLimited),
		))
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.Index)
			r.Post("/", postHandler.Create)
			r.Get("/{id}", postHandler.Show)
			r.Put("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
		})
		r.Route("/prompt-generations", func(r chi.Router) {
			r.Get("/", genHandler.Index)
			r.Post("/", genHandler.Create)
		})
	})

	addr := ":" + os.Getenv("APP_PORT")
	if addr == ":" {
		addr = ":3000"
	}
	slog.Info("Starting API server", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server run error", "error", err)
		os.Exit(1)
	}
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{"message": "too many requests"})
}
