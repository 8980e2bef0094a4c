package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/standupdoc/standupdoc/internal/archive"
	"github.com/standupdoc/standupdoc/internal/config"
	"github.com/standupdoc/standupdoc/internal/database"
	"github.com/standupdoc/standupdoc/internal/lock"
	"github.com/standupdoc/standupdoc/internal/oidc"
	"github.com/standupdoc/standupdoc/internal/standup/handler"
	"github.com/standupdoc/standupdoc/internal/standup/repository"
	"github.com/standupdoc/standupdoc/internal/standup/service"
	"github.com/standupdoc/standupdoc/internal/summarize"
	"github.com/standupdoc/standupdoc/internal/tokens"
	"github.com/standupdoc/standupdoc/internal/trigger"
	"github.com/standupdoc/standupdoc/internal/users"
	"github.com/standupdoc/standupdoc/pkg/logger"
	"github.com/standupdoc/standupdoc/pkg/metrics"
	"github.com/standupdoc/standupdoc/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v oidc=%v summarizer=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Auth.OIDCIssuer != "", cfg.Summarizer.Endpoint != "")

	ctx := context.Background()
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// permissive CORS for dev; front deployments sit behind a stricter proxy
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	// Redis: generation locks + optional distributed rate limiting
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis unreachable (%s:%s), continuing without it: %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Mongo-backed stores; the service degrades to in-memory stores when no
	// URI is configured so local development needs nothing but the binary.
	var (
		standups     repository.StandupRepository
		docs         repository.DocumentRepository
		achievements repository.AchievementRepository
		userSvc      *users.Service
		mongoOK      bool
	)
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		db := client.Database(cfg.MongoDB.Database)
		standups = repository.NewMongoStandupRepository(db.Collection(database.CollStandups))
		docs = repository.NewMongoDocumentRepository(db.Collection(database.CollDocuments))
		achievements = repository.NewMongoAchievementRepository(db.Collection(database.CollAchievements))
		userSvc = users.NewService(users.NewMongoUserRepository(db.Collection(database.CollUsers)))
		mongoOK = true
	} else {
		logger.Warnf("MONGODB_URI not set, using in-memory stores (data is lost on restart)")
		standups = repository.NewMemoryStandupRepository()
		docs = repository.NewMemoryDocumentRepository()
		achievements = repository.NewMemoryAchievementRepository()
	}

	summarizer := summarize.NewClient(cfg.Summarizer.Endpoint, cfg.Summarizer.APIKey, cfg.Summarizer.Model, cfg.Summarizer.Timeout)
	svc := service.New(docs, achievements, summarizer)
	if redisClient != nil {
		svc.SetLocker(lock.NewRedisLocker(redisClient, "lock:"))
	}
	if cfg.Archive.Endpoint != "" {
		arc, err := archive.NewMinIOArchive(cfg.Archive)
		if err != nil {
			logger.Warnf("snapshot archive disabled: %v", err)
		} else {
			svc.SetArchiver(arc)
		}
	}

	// token verification: OIDC when an issuer is configured, otherwise
	// locally issued HS256 tokens
	var verifier middleware.Verifier
	switch {
	case cfg.Auth.OIDCIssuer != "":
		ver, err := oidc.NewVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
		if err != nil {
			logger.Fatalf("failed to initialize OIDC verifier: %v", err)
		}
		verifier = ver
	case cfg.Auth.JWTSecret != "":
		verifier = tokens.NewStaticVerifier(cfg.Auth.JWTSecret)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongo": mongoOK || cfg.MongoDB.URI == "",
			"redis": redisClient != nil || cfg.Redis.Host == "",
			"auth":  verifier != nil,
		}
		status := http.StatusOK
		body := gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()}
		for _, ok := range deps {
			if !ok {
				status = http.StatusServiceUnavailable
				body["status"] = "not_ready"
				break
			}
		}
		c.JSON(status, body)
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if verifier != nil {
		api.Use(middleware.AuthMiddleware(verifier))
	} else {
		logger.Warnf("no verifier configured, /api is unauthenticated")
	}
	if userSvc != nil {
		api.GET("/me", func(c *gin.Context) {
			claims, _ := c.Get("claims")
			if cm, ok := claims.(map[string]interface{}); ok {
				if u, err := userSvc.UpsertFromClaims(c.Request.Context(), cm); err == nil {
					c.JSON(http.StatusOK, gin.H{"user": u})
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"claims": claims})
		})
	}
	handler.New(standups, svc).RegisterRoutes(api)

	if cfg.Trigger.Enabled {
		trg := trigger.New(standups, svc, cfg.Trigger.Interval)
		if err := trg.Start(); err != nil {
			logger.Fatalf("failed to start generation trigger: %v", err)
		}
		defer trg.Stop()
		logger.Infof("generation trigger running every %s", cfg.Trigger.Interval)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting standupdoc on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
