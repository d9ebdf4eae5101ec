package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/api"
	"github.com/looptalk/flowgraph/editor"
	"github.com/looptalk/flowgraph/graph"
	"github.com/looptalk/flowgraph/store"
	"github.com/looptalk/flowgraph/types"
)

// =============================================================================
// 工作流会话 Handler
// =============================================================================

// MetricsRecorder 记录保存、校验、布局与会话数等领域指标。
// internal/metrics.Collector 实现了该接口；为 nil 时不记录。
type MetricsRecorder interface {
	RecordSave(status string, duration time.Duration)
	RecordValidation(duration time.Duration, errorCount, warningCount int)
	RecordLayout(duration time.Duration)
	SetOpenSessions(n int)
}

// WorkflowHandler 工作流会话处理器，所有编辑都经由 editor.Manager
// 的单会话路径，保证同一工作流的保存永不并发。
type WorkflowHandler struct {
	sessions *editor.Manager
	metrics  MetricsRecorder
	logger   *zap.Logger
}

// NewWorkflowHandler 创建工作流处理器
func NewWorkflowHandler(sessions *editor.Manager, logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{
		sessions: sessions,
		logger:   logger.With(zap.String("component", "workflow_handler")),
	}
}

// WithMetrics 挂接领域指标收集器，返回 handler 自身便于链式调用。
func (h *WorkflowHandler) WithMetrics(m MetricsRecorder) *WorkflowHandler {
	h.metrics = m
	return h
}

// recordSessionCount 会话数变化后刷新 gauge
func (h *WorkflowHandler) recordSessionCount() {
	if h.metrics != nil {
		h.metrics.SetOpenSessions(h.sessions.Count())
	}
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleCreateWorkflow 从默认模板创建新工作流会话
// @Summary 创建工作流
// @Description 从默认模板创建一个尚未持久化的新工作流会话
// @Tags workflow
// @Accept json
// @Produce json
// @Param request body api.CreateWorkflowRequest false "创建请求"
// @Success 201 {object} Response{data=editor.Snapshot} "会话快照"
// @Failure 400 {object} Response "请求无效"
// @Router /v1/workflows [post]
func (h *WorkflowHandler) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req api.CreateWorkflowRequest
	if r.ContentLength > 0 {
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
	}
	if req.WorkflowID == "" {
		req.WorkflowID = uuid.NewString()
	}

	s := h.sessions.Create(req.WorkflowID)
	h.recordSessionCount()
	h.logger.Info("workflow created", zap.String("workflow_id", req.WorkflowID))
	WriteCreated(w, s.Snapshot())
}

// HandleGetWorkflow 获取工作流会话快照
// @Summary 获取工作流
// @Description 获取工作流的当前会话快照，首次访问时从存储加载
// @Tags workflow
// @Produce json
// @Param id path string true "工作流 ID"
// @Success 200 {object} Response{data=editor.Snapshot} "会话快照"
// @Failure 404 {object} Response "工作流不存在"
// @Router /v1/workflows/{id} [get]
func (h *WorkflowHandler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, s.Snapshot())
}

// HandleReplaceWorkflow 整体替换工作图
// @Summary 替换工作流图
// @Description 用画布客户端提交的完整文档替换工作图，会话转为 dirty
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "工作流 ID"
// @Param request body api.ReplaceWorkflowRequest true "完整文档"
// @Success 200 {object} Response{data=editor.Snapshot} "替换后的快照"
// @Failure 400 {object} Response "请求无效"
// @Failure 404 {object} Response "工作流不存在"
// @Router /v1/workflows/{id} [put]
func (h *WorkflowHandler) HandleReplaceWorkflow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.ReplaceWorkflowRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Graph == nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "graph is required", h.logger)
		return
	}

	s.Replace(req.Graph)
	WriteSuccess(w, s.Snapshot())
}

// HandleSaveWorkflow 持久化工作图
// @Summary 保存工作流
// @Description 将工作图写入存储；同一工作流的并发保存会被拒绝而非排队
// @Tags workflow
// @Produce json
// @Param id path string true "工作流 ID"
// @Success 200 {object} Response{data=api.SaveResponse} "保存结果"
// @Failure 404 {object} Response "工作流不存在"
// @Failure 409 {object} Response "已有保存在途"
// @Failure 502 {object} Response "存储写入失败"
// @Router /v1/workflows/{id}/save [post]
func (h *WorkflowHandler) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	start := time.Now()
	persisted, err := s.Save(r.Context())
	if h.metrics != nil {
		h.metrics.RecordSave(saveStatus(err), time.Since(start))
	}
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	WriteSuccess(w, api.SaveResponse{
		Graph: persisted,
		State: s.State(),
		Dirty: s.IsDirty(),
	})
}

// HandleValidateWorkflow 校验工作图
// @Summary 校验工作流
// @Description 校验请求体中的图；未提供时校验会话的当前工作图
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "工作流 ID"
// @Param request body api.ValidateRequest false "校验请求"
// @Success 200 {object} Response{data=api.ValidateResponse} "校验结果"
// @Failure 404 {object} Response "工作流不存在"
// @Router /v1/workflows/{id}/validate [post]
func (h *WorkflowHandler) HandleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.ValidateRequest
	if r.ContentLength > 0 {
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
	}

	start := time.Now()
	var violations []graph.Violation
	if req.Graph != nil {
		violations = graph.NewValidator().Validate(req.Graph)
	} else {
		violations = s.Violations()
	}
	elapsed := time.Since(start)

	resp := api.ValidateResponse{Violations: violations}
	for _, v := range violations {
		switch v.Severity {
		case graph.SeverityError:
			resp.Errors++
		case graph.SeverityWarning:
			resp.Warnings++
		}
	}
	resp.Valid = resp.Errors == 0

	if h.metrics != nil {
		h.metrics.RecordValidation(elapsed, resp.Errors, resp.Warnings)
	}
	WriteSuccess(w, resp)
}

// HandleLayoutWorkflow 自动布局
// @Summary 自动布局
// @Description 对工作图执行分层布局；缺省将结果写回会话并标记 dirty
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "工作流 ID"
// @Param request body api.LayoutRequest false "布局请求"
// @Success 200 {object} Response{data=api.LayoutResponse} "布局结果"
// @Failure 404 {object} Response "工作流不存在"
// @Router /v1/workflows/{id}/layout [post]
func (h *WorkflowHandler) HandleLayoutWorkflow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.LayoutRequest
	if r.ContentLength > 0 {
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
	}

	start := time.Now()
	working := s.Working()
	var laid *graph.Graph
	if req.Config != nil {
		laid = graph.LayoutWithConfig(working, *req.Config)
	} else {
		laid = graph.Layout(working)
	}
	if h.metrics != nil {
		h.metrics.RecordLayout(time.Since(start))
	}

	apply := req.Apply == nil || *req.Apply
	if apply {
		s.Replace(laid)
	}

	WriteSuccess(w, api.LayoutResponse{Graph: laid, Applied: apply})
}

// HandleRunnable 运行门禁判定
// @Summary 可运行性
// @Description 判定工作流是否允许发起通话：无未保存编辑且无 error 级违规
// @Tags workflow
// @Produce json
// @Param id path string true "工作流 ID"
// @Success 200 {object} Response{data=api.RunnableResponse} "判定结果"
// @Failure 404 {object} Response "工作流不存在"
// @Router /v1/workflows/{id}/runnable [get]
func (h *WorkflowHandler) HandleRunnable(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	errorCount := 0
	for _, v := range s.Violations() {
		if v.Severity == graph.SeverityError {
			errorCount++
		}
	}

	WriteSuccess(w, api.RunnableResponse{
		Runnable: s.IsRunnable(),
		Dirty:    s.IsDirty(),
		Errors:   errorCount,
	})
}

// HandleCloseWorkflow 关闭会话
// @Summary 关闭工作流会话
// @Description 丢弃会话，未保存编辑随之丢失；是否确认由客户端负责
// @Tags workflow
// @Produce json
// @Param id path string true "工作流 ID"
// @Success 200 {object} Response "会话已关闭"
// @Router /v1/workflows/{id} [delete]
func (h *WorkflowHandler) HandleCloseWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := extractWorkflowID(r)
	if workflowID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow ID is required", h.logger)
		return
	}
	h.sessions.Close(workflowID)
	h.recordSessionCount()
	WriteSuccess(w, map[string]string{"workflow_id": workflowID, "status": "closed"})
}

// =============================================================================
// 辅助函数
// =============================================================================

// session 解析路径中的工作流 ID 并取得会话；失败时已写出响应。
func (h *WorkflowHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	workflowID := extractWorkflowID(r)
	if workflowID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow ID is required", h.logger)
		return nil, false
	}

	s, err := h.sessions.Get(r.Context(), workflowID)
	if err != nil {
		h.writeStoreError(w, workflowID, err)
		return nil, false
	}
	// Get 可能刚从存储打开了新会话
	h.recordSessionCount()
	return s, true
}

// saveStatus 保存结果的指标标签：success / rejected（在途拒绝）/ failed
func saveStatus(err error) string {
	if err == nil {
		return "success"
	}
	var typed *types.Error
	if errors.As(err, &typed) && typed.Code == types.ErrSaveInFlight {
		return "rejected"
	}
	return "failed"
}

// writeStoreError 将存储哨兵错误映射为 API 错误
func (h *WorkflowHandler) writeStoreError(w http.ResponseWriter, workflowID string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, types.NewError(types.ErrNotFound, "workflow not found").
			WithWorkflowID(workflowID), h.logger)
	case errors.Is(err, store.ErrUnauthorized):
		WriteError(w, types.NewError(types.ErrUnauthorized, "not authorized for workflow").
			WithWorkflowID(workflowID), h.logger)
	case errors.Is(err, store.ErrTransient):
		WriteError(w, types.NewError(types.ErrServiceUnavailable, "storage temporarily unavailable").
			WithCause(err).
			WithWorkflowID(workflowID).
			WithRetryable(true), h.logger)
	default:
		WriteError(w, types.NewError(types.ErrInternalError, "failed to open workflow").
			WithCause(err).
			WithWorkflowID(workflowID), h.logger)
	}
}

// writeWorkflowError 写出编辑层错误（已携带错误码）
func (h *WorkflowHandler) writeWorkflowError(w http.ResponseWriter, err error) {
	var typed *types.Error
	if errors.As(err, &typed) {
		WriteError(w, typed, h.logger)
		return
	}
	WriteError(w, types.NewError(types.ErrInternalError, "workflow operation failed").
		WithCause(err), h.logger)
}

// extractWorkflowID extracts the workflow ID from the URL path.
// Supports both /v1/workflows/{id} (PathValue) and prefix trimming.
func extractWorkflowID(r *http.Request) string {
	// Try Go 1.22+ PathValue first
	if id := r.PathValue("id"); id != "" {
		return id
	}
	// Fallback: extract from URL path by trimming the /v1/workflows/ prefix
	path := strings.TrimPrefix(r.URL.Path, "/v1/workflows/")
	if path == "" || path == r.URL.Path {
		return ""
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
