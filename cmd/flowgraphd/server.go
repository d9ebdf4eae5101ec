package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/api/handlers"
	"github.com/looptalk/flowgraph/config"
	"github.com/looptalk/flowgraph/editor"
	"github.com/looptalk/flowgraph/graph"
	"github.com/looptalk/flowgraph/internal/metrics"
	"github.com/looptalk/flowgraph/internal/server"
	"github.com/looptalk/flowgraph/internal/telemetry"
	"github.com/looptalk/flowgraph/internal/tokenizer"
	"github.com/looptalk/flowgraph/store"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 FlowGraph 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 核心组件
	workflowStore store.Store
	sessions      *editor.Manager

	// Handlers
	healthHandler   *handlers.HealthHandler
	workflowHandler *handlers.WorkflowHandler
	streamHandler   *handlers.StreamHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// 遥测
	otelProviders *telemetry.Providers

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("flowgraph", s.logger)

	// 2. 初始化存储与会话管理
	if err := s.initCore(); err != nil {
		return fmt.Errorf("failed to init core components: %w", err)
	}

	// 3. 初始化 Handlers
	s.initHandlers()

	// 4. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 5. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("store_type", s.cfg.Store.Type),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initCore 初始化存储后端与会话管理器
func (s *Server) initCore() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.New(ctx, s.cfg.Store.ToStore(), s.logger)
	if err != nil {
		return fmt.Errorf("create workflow store: %w", err)
	}
	s.workflowStore = newMeasuredStore(st, s.cfg.Store.Type, s.metricsCollector)

	// 提示词预算校验使用 tiktoken 计数
	counter := tokenizer.NewTiktokenCounter(s.cfg.Editor.TokenEncoding)
	validator := graph.NewValidator(
		graph.WithPromptTokenBudget(counter, s.cfg.Editor.PromptTokenBudget),
	)

	s.sessions = editor.NewManager(s.workflowStore, s.logger, editor.WithValidator(validator))

	s.logger.Info("Core components initialized",
		zap.String("store_type", s.cfg.Store.Type),
		zap.String("token_counter", counter.Name()),
		zap.Int("prompt_token_budget", s.cfg.Editor.PromptTokenBudget),
	)
	return nil
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewStoreHealthCheck("workflow_store", s.workflowStore))

	s.workflowHandler = handlers.NewWorkflowHandler(s.sessions, s.logger).
		WithMetrics(s.metricsCollector)
	s.streamHandler = handlers.NewStreamHandler(s.sessions, s.logger)

	s.logger.Info("Handlers initialized")
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// 工作流 API 路由
	// ========================================
	mux.HandleFunc("POST /v1/workflows", s.workflowHandler.HandleCreateWorkflow)
	mux.HandleFunc("GET /v1/workflows/{id}", s.workflowHandler.HandleGetWorkflow)
	mux.HandleFunc("PUT /v1/workflows/{id}", s.workflowHandler.HandleReplaceWorkflow)
	mux.HandleFunc("DELETE /v1/workflows/{id}", s.workflowHandler.HandleCloseWorkflow)
	mux.HandleFunc("POST /v1/workflows/{id}/save", s.workflowHandler.HandleSaveWorkflow)
	mux.HandleFunc("POST /v1/workflows/{id}/validate", s.workflowHandler.HandleValidateWorkflow)
	mux.HandleFunc("POST /v1/workflows/{id}/layout", s.workflowHandler.HandleLayoutWorkflow)
	mux.HandleFunc("GET /v1/workflows/{id}/runnable", s.workflowHandler.HandleRunnable)
	mux.HandleFunc("GET /v1/workflows/{id}/stream", s.streamHandler.HandleStream)

	// ========================================
	// 构建中间件链
	// ========================================
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitPerSecond, s.cfg.Server.RateLimitBurst, s.logger),
	)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭存储
	if s.workflowStore != nil {
		if err := s.workflowStore.Close(); err != nil {
			s.logger.Error("Workflow store close error", zap.Error(err))
		}
	}

	// 4. 关闭遥测
	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
