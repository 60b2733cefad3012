package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "parley/docs"
	"parley/internal/ai"
	"parley/internal/config"
	"parley/internal/handler"
	"parley/internal/pkg/jwt"
	"parley/internal/pkg/lock"
	"parley/internal/pkg/mongodb"
	"parley/internal/pkg/ratelimit"
	"parley/internal/pkg/sqldb"
	"parley/internal/repository"
	"parley/internal/server/middleware"
	"parley/internal/service"
)

const (
	defaultJWTSecret = "default-secret-key-change-in-production"
	shutdownTimeout  = 30 * time.Second
	// 锁的过期时间需覆盖流式生成 + 落库
	lockTTLPadding = 30 * time.Second
)

// Deps 服务器依赖，测试时可直接注入
type Deps struct {
	Store  service.ConversationStore
	LLM    service.Completer
	Locker lock.Locker // 为 nil 时不做同一对话的并发保护
}

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	deps   Deps

	mongo *mongodb.Client
	sqlDB *gorm.DB
	redis *redis.Client
}

// New 根据配置创建存储、锁与模型客户端，并组装服务器
func New(cfg *config.Config) (*Server, error) {
	srv := &Server{cfg: cfg}

	store, err := srv.openStore()
	if err != nil {
		srv.Close()
		return nil, err
	}

	llm, err := ai.NewClient(context.Background(), &cfg.AI)
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("init completion client: %w", err)
	}

	srv.init(Deps{
		Store:  store,
		LLM:    llm,
		Locker: srv.openLocker(),
	})
	return srv, nil
}

// NewWithDeps 使用外部依赖创建服务器，不持有任何连接
func NewWithDeps(cfg *config.Config, deps Deps) *Server {
	srv := &Server{cfg: cfg}
	srv.init(deps)
	return srv
}

func (s *Server) init(deps Deps) {
	switch s.cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s.engine = gin.New()
	s.deps = deps
	s.setupRoutes()
}

// openStore 按 store.driver 打开对话存储
func (s *Server) openStore() (service.ConversationStore, error) {
	switch s.cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := mongodb.New(&s.cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		s.mongo = client
		log.Info().Str("database", s.cfg.Mongo.Database).Msg("connected to MongoDB")

		if err := mongodb.EnsureIndexes(client.Database()); err != nil {
			log.Warn().Err(err).Msg("failed to ensure indexes")
		}
		return repository.NewConversationRepo(client.Database()), nil

	case config.StoreDriverSQLite:
		db, err := sqldb.New(&s.cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open SQLite: %w", err)
		}
		s.sqlDB = db

		repo := repository.NewConversationSQLRepo(db)
		if err := repo.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("migrate SQLite: %w", err)
		}
		log.Info().Str("path", s.cfg.SQLite.Path).Msg("opened SQLite store")
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", s.cfg.Store.Driver)
	}
}

// openLocker 配置了 Redis 时使用分布式锁，否则退回进程内锁
func (s *Server) openLocker() lock.Locker {
	if !s.cfg.Chat.TurnLock {
		return nil
	}

	if s.cfg.Redis.Addr != "" {
		client, err := lock.NewRedisClient(&s.cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, falling back to in-process turn lock")
		} else {
			s.redis = client
			log.Info().Str("addr", s.cfg.Redis.Addr).Msg("connected to Redis")
			return lock.NewRedisLocker(client, lockTTL(&s.cfg.Chat))
		}
	}

	return lock.NewLocalLocker()
}

// lockTTL 与对话服务使用同一个单轮超时
func lockTTL(cfg *config.ChatConfig) time.Duration {
	return cfg.TurnTimeout() + lockTTLPadding
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS(s.cfg.Server.CORSOrigins))

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.deps.Store)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtSecret := s.cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = defaultJWTSecret
		log.Warn().Msg("JWT secret not configured, using default (NOT SECURE for production)")
	}
	jwtUtil := jwt.NewJWT(jwtSecret, s.cfg.Auth.AccessTokenExpiry)

	convSvc := service.NewConversationService(s.deps.Store)
	chatSvc := service.NewChatService(s.deps.Store, s.deps.LLM, s.deps.Locker, &s.cfg.Chat)
	convHdl := handler.NewConversationHandler(convSvc)
	chatHdl := handler.NewChatHandler(chatSvc)
	sessionHdl := handler.NewSessionHandler(s.cfg.Auth.CookieName)

	// 以下接口都需要登录
	api := s.engine.Group("/api")
	api.Use(middleware.Auth(jwtUtil, s.cfg.Auth.CookieName))
	{
		api.GET("/session", sessionHdl.Me)
		api.POST("/logout", sessionHdl.Logout)

		api.GET("/conversations", convHdl.List)
		api.GET("/conversations/:id", convHdl.Get)
		api.POST("/conversations", convHdl.Create)
		api.PATCH("/conversations", convHdl.Rename)
		api.DELETE("/conversations", convHdl.Delete)

		chatHandlers := []gin.HandlerFunc{}
		if rl := s.cfg.Chat.RateLimit; rl.PerMinute > 0 {
			limiter := ratelimit.NewKeyedLimiter(rl.PerMinute, rl.Burst)
			chatHandlers = append(chatHandlers, middleware.RateLimit(limiter, rl.PerMinute))
		}
		chatHandlers = append(chatHandlers, chatHdl.Chat)
		api.POST("/chat", chatHandlers...)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		// 先等待进行中的请求结束，保证流式回复能落库，再关闭连接
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		s.Close()
		return err
	case err := <-errCh:
		s.Close()
		return err
	}
}

// Close 释放服务器持有的连接
func (s *Server) Close() {
	if s.mongo != nil {
		if err := s.mongo.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
		s.mongo = nil
	}
	if s.sqlDB != nil {
		if err := sqldb.Close(s.sqlDB); err != nil {
			log.Error().Err(err).Msg("failed to close SQLite")
		}
		s.sqlDB = nil
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
		s.redis = nil
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
