package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Fliplet/fliplet-widget-publishing/internal/api/handlers"
	"github.com/Fliplet/fliplet-widget-publishing/internal/api/middleware"
	"github.com/Fliplet/fliplet-widget-publishing/internal/config"
	"github.com/Fliplet/fliplet-widget-publishing/internal/repository"
	"github.com/Fliplet/fliplet-widget-publishing/internal/service"
	"github.com/Fliplet/fliplet-widget-publishing/internal/session"
	"github.com/Fliplet/fliplet-widget-publishing/internal/websocket"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/apiclient"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/locking"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/logger"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/ratelimit"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/storage"
)

// SetupRouter API 라우터 설정. 반환된 monitor는 종료 시 Stop해야 한다
func SetupRouter(cfg *config.Config) (*gin.Engine, *service.BuildMonitor) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg))

	// 원격 제출 API 클라이언트 (발신 요청 스로틀 포함)
	apiClient := apiclient.New(apiclient.Config{
		BaseURL:  cfg.APIBaseURL,
		Token:    cfg.APIToken,
		Timeout:  cfg.APITimeout,
		Throttle: ratelimit.NewBucket(20, 10),
	})
	submissionRepo := repository.NewSubmissionRepository(apiClient)

	// 세션 캐시 / 뮤테이션 락 (Redis 가능 시 분산, 아니면 인메모리)
	var sessions session.Store = session.NewMemoryStore()
	var locks locking.Manager = locking.NewMemoryManager()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("Invalid REDIS_URL, falling back to in-memory stores", "error", err)
		} else {
			client := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = client.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				logger.Warn("Redis unreachable, falling back to in-memory stores", "error", err)
			} else {
				sessions = session.NewRedisStore(client, 24*time.Hour)
				locks = locking.NewRedisManager(client)
				logger.Info("Redis session store and lock manager enabled")
			}
		}
	}

	// 에셋 스테이징
	assets := storage.NewStorage(cfg.StoragePath)

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// 빌드 모니터 + 오케스트레이터
	monitor := service.NewBuildMonitor(submissionRepo, sessions, wsHub, cfg.PollInitialInterval, cfg.PollMaxInterval)
	publishService := service.NewPublishService(submissionRepo, sessions, monitor)

	// Handler 초기화
	publishHandler := handlers.NewPublishHandler(publishService, locks, assets)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// 스테이징된 에셋 서빙
	router.Static("/storage", cfg.StoragePath)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.WSConnectRateLimit(), wsHandler.HandleWebSocket)

		apps := v1.Group("/apps/:appId/publish")
		apps.Use(middleware.Auth(cfg))
		{
			// 조회 (대시보드가 위젯 로드마다 폴링하므로 넉넉한 한도)
			probeLimit := middleware.GeneralAPIRateLimit()
			apps.GET("/:platform/state", probeLimit, publishHandler.GetState)
			apps.GET("/:platform/progress", probeLimit, publishHandler.GetProgress)
			apps.GET("/:platform/submissions", probeLimit, publishHandler.ListSubmissions)

			// 제출 생성
			apps.POST("/:platform/submissions", middleware.MutationRateLimit(), publishHandler.CreateSubmission)

			// 워크플로우 전이
			submissions := apps.Group("/submissions/:id")
			submissions.Use(middleware.MutationRateLimit())
			{
				submissions.PUT("/store-config", publishHandler.SubmitStoreConfig)
				submissions.PUT("/push-config", publishHandler.SubmitPushConfig)
				submissions.PUT("/metadata", publishHandler.SubmitMetadata)
				submissions.POST("/build", publishHandler.TriggerBuild)
				submissions.POST("/cancel", publishHandler.CancelBuild)
			}

			// 에셋 업로드
			apps.POST("/assets", middleware.UploadRateLimit(), publishHandler.UploadAsset)
		}
	}

	return router, monitor
}
