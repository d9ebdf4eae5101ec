package handlers

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/editor"
	"github.com/looptalk/flowgraph/types"
)

// =============================================================================
// 会话快照 WebSocket 流 Handler
// =============================================================================

// StreamHandler 将会话的状态快照推送给渲染端。每次图编辑、校验
// 结果变化或保存状态迁移都会推送一帧完整快照；慢消费者会丢帧
// 而不是阻塞编辑器。
type StreamHandler struct {
	sessions *editor.Manager
	logger   *zap.Logger
}

// NewStreamHandler 创建快照流处理器
func NewStreamHandler(sessions *editor.Manager, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		sessions: sessions,
		logger:   logger.With(zap.String("component", "stream_handler")),
	}
}

// HandleStream 处理 /v1/workflows/{id}/stream 的 WebSocket 升级
// @Summary 会话快照流
// @Description 通过 WebSocket 推送会话快照，连接建立后先推一帧当前状态
// @Tags workflow
// @Param id path string true "工作流 ID"
// @Success 101 "已升级为 WebSocket"
// @Failure 404 {object} Response "工作流不存在"
// @Router /v1/workflows/{id}/stream [get]
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	workflowID := extractWorkflowID(r)
	if workflowID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow ID is required", h.logger)
		return
	}

	s, err := h.sessions.Get(r.Context(), workflowID)
	if err != nil {
		// 升级前仍可写普通 HTTP 错误
		WriteError(w, types.NewError(types.ErrNotFound, "workflow not found").
			WithCause(err).
			WithWorkflowID(workflowID), h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 跨源策略由外层网关负责
	})
	if err != nil {
		h.logger.Warn("websocket accept failed",
			zap.String("workflow_id", workflowID),
			zap.Error(err),
		)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	h.logger.Debug("snapshot stream opened", zap.String("workflow_id", workflowID))
	h.pump(r.Context(), conn, s)
	conn.Close(websocket.StatusNormalClosure, "")
}

// pump 先推送当前快照，然后转发订阅通道直到连接或会话结束。
func (h *StreamHandler) pump(ctx context.Context, conn *websocket.Conn, s *editor.Session) {
	snapshots, cancel := s.Subscribe()
	defer cancel()

	if err := wsjson.Write(ctx, conn, s.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				// 会话被关闭，流随之结束
				return
			}
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				h.logger.Debug("snapshot push failed",
					zap.String("workflow_id", s.WorkflowID()),
					zap.Error(err),
				)
				return
			}
		}
	}
}
