/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
HTTP、保存、校验、布局与存储五大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - HTTP 指标：请求总数、请求耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 保存指标：保存总数与耗时，按 status（success/failed/rejected）分组。
  - 校验指标：校验总数、校验耗时、每次校验发现的违规数，
    按 severity（error/warning）分组。
  - 布局指标：自动布局次数与耗时。
  - 会话指标：当前打开的编辑会话数 Gauge。
  - 存储指标：存储操作耗时，按 backend/operation 分组。
*/
package metrics
