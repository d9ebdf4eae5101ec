/*
Package handlers 提供 FlowGraph HTTP API 的请求处理器实现。

# 概述

handlers 包实现了工作流编辑服务所有 HTTP 端点的请求处理逻辑，
包括会话生命周期、图校验、自动布局、保存编排、快照流
以及统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口，通过 Swagger 注解生成 API 文档。

# 核心类型

  - WorkflowHandler  — 工作流会话的创建、读取、替换、保存、校验与布局
  - StreamHandler    — 会话快照的 WebSocket 推送流
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready）
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck      — 可插拔健康检查接口（存储 Ping 等）

# 主要能力

  - 统一响应格式：WriteSuccess / WriteCreated / WriteError / WriteJSON
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射（SAVE_IN_FLIGHT → 409 等）
  - 存储哨兵错误到 API 错误的转换（not found / unauthorized / transient）
  - WebSocket 快照流：每次编辑、校验或保存状态迁移推送一帧完整快照
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现，并发执行
*/
package handlers
