package api

import (
	"github.com/looptalk/flowgraph/editor"
	"github.com/looptalk/flowgraph/graph"
)

// =============================================================================
// 工作流类型
// =============================================================================

// CreateWorkflowRequest 表示创建新工作流的请求。
// @Description 创建工作流请求结构
type CreateWorkflowRequest struct {
	// 工作流 ID（可选；缺省时由服务端生成）
	WorkflowID string `json:"workflow_id,omitempty" example:"wf-demo"`
}

// ReplaceWorkflowRequest 表示画布客户端整体提交的文档。
// @Description 整体替换工作流图请求
type ReplaceWorkflowRequest struct {
	// 完整的工作流图
	Graph *graph.Graph `json:"graph" binding:"required"`
}

// WorkflowSnapshotResponse 表示会话的当前读取面。
// @Description 工作流会话快照
type WorkflowSnapshotResponse = editor.Snapshot

// =============================================================================
// 校验类型
// =============================================================================

// ValidateRequest 表示校验请求。Graph 为空时校验会话的工作图。
// @Description 图校验请求结构
type ValidateRequest struct {
	// 要校验的图（可选）
	Graph *graph.Graph `json:"graph,omitempty"`
}

// ValidateResponse 表示校验结果。
// @Description 图校验响应结构
type ValidateResponse struct {
	// 是否不含 error 级违规
	Valid bool `json:"valid"`
	// error 级违规数
	Errors int `json:"errors"`
	// warning 级违规数
	Warnings int `json:"warnings"`
	// 全部违规，按 workflow → node → edge 排序
	Violations []graph.Violation `json:"violations"`
}

// =============================================================================
// 布局类型
// =============================================================================

// LayoutRequest 表示自动布局请求。
// @Description 自动布局请求结构
type LayoutRequest struct {
	// 是否将布局结果写回工作图（缺省 true）
	Apply *bool `json:"apply,omitempty"`
	// 自定义间距（可选，缺省使用标准间距）
	Config *graph.LayoutConfig `json:"config,omitempty"`
}

// LayoutResponse 表示布局结果。
// @Description 自动布局响应结构
type LayoutResponse struct {
	// 布局后的图
	Graph *graph.Graph `json:"graph"`
	// 结果是否已写回会话
	Applied bool `json:"applied"`
}

// =============================================================================
// 保存与运行类型
// =============================================================================

// SaveResponse 表示保存结果：服务端回显的持久化图。
// @Description 保存工作流响应结构
type SaveResponse struct {
	// 持久化后的图（ID 已替换为服务端分配值）
	Graph *graph.Graph `json:"graph"`
	// 保存后的会话状态
	State editor.State `json:"state"`
	// 保存后是否仍有未持久化编辑
	Dirty bool `json:"dirty"`
}

// RunnableResponse 表示运行门禁判定结果。
// @Description 可运行性响应结构
type RunnableResponse struct {
	// 是否允许发起通话/运行
	Runnable bool `json:"runnable"`
	// 是否有未保存编辑
	Dirty bool `json:"dirty"`
	// error 级违规数
	Errors int `json:"errors"`
}
