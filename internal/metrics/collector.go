// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 保存指标
	savesTotal   *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec

	// 校验指标
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	violationsFound    *prometheus.HistogramVec

	// 布局指标
	layoutsTotal   *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec

	// 会话指标
	sessionsOpen *prometheus.GaugeVec

	// 存储指标
	storeOpDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 保存指标
	c.savesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_saves_total",
			Help:      "Total number of workflow save attempts",
		},
		[]string{"status"}, // status: success, failed, rejected
	)

	c.saveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_save_duration_seconds",
			Help:      "Workflow save duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"status"},
	)

	// 校验指标
	c.validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_validations_total",
			Help:      "Total number of workflow validations",
		},
		[]string{"result"}, // result: valid, invalid
	)

	c.validationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_validation_duration_seconds",
			Help:      "Workflow validation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{},
	)

	c.violationsFound = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_violations_found",
			Help:      "Number of violations found per validation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"severity"}, // severity: error, warning
	)

	// 布局指标
	c.layoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_layouts_total",
			Help:      "Total number of auto-layout runs",
		},
		[]string{},
	)

	c.layoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_layout_duration_seconds",
			Help:      "Auto-layout duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{},
	)

	// 会话指标
	c.sessionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editor_sessions_open",
			Help:      "Number of open editor sessions",
		},
		[]string{},
	)

	// 存储指标
	c.storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 💾 保存指标记录
// =============================================================================

// RecordSave 记录一次保存
func (c *Collector) RecordSave(status string, duration time.Duration) {
	c.savesTotal.WithLabelValues(status).Inc()
	c.saveDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// =============================================================================
// ✅ 校验指标记录
// =============================================================================

// RecordValidation 记录一次校验
func (c *Collector) RecordValidation(duration time.Duration, errorCount, warningCount int) {
	result := "valid"
	if errorCount > 0 {
		result = "invalid"
	}
	c.validationsTotal.WithLabelValues(result).Inc()
	c.validationDuration.WithLabelValues().Observe(duration.Seconds())
	c.violationsFound.WithLabelValues("error").Observe(float64(errorCount))
	c.violationsFound.WithLabelValues("warning").Observe(float64(warningCount))
}

// =============================================================================
// 📐 布局指标记录
// =============================================================================

// RecordLayout 记录一次自动布局
func (c *Collector) RecordLayout(duration time.Duration) {
	c.layoutsTotal.WithLabelValues().Inc()
	c.layoutDuration.WithLabelValues().Observe(duration.Seconds())
}

// =============================================================================
// 🖥️ 会话指标记录
// =============================================================================

// SetOpenSessions 记录当前打开的编辑会话数
func (c *Collector) SetOpenSessions(n int) {
	c.sessionsOpen.WithLabelValues().Set(float64(n))
}

// =============================================================================
// 🗄️ 存储指标记录
// =============================================================================

// RecordStoreOperation 记录存储操作
func (c *Collector) RecordStoreOperation(backend, operation string, duration time.Duration) {
	c.storeOpDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
