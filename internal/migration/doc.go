/*
包 migration 提供工作流存储的 Schema 迁移管理能力，
基于 golang-migrate 与纯 Go SQLite 驱动实现。

# 概述

本包通过 embed.FS 内嵌 SQL 迁移文件，结合 golang-migrate 引擎
实现版本化的 Schema 变更管理。支持正向迁移、回滚与按步执行。

# 核心接口与类型

  - Migrator：迁移器接口，定义 Up/Down/DownAll/Steps/
    Version/Status/Info/Close 操作集。
  - DefaultMigrator：Migrator 的默认实现，封装 golang-migrate 实例
    与数据库连接管理。
  - Config：迁移配置，包含连接 URL、迁移表名与锁超时。
  - MigrationStatus / MigrationInfo：迁移状态与摘要信息。

# 主要能力

  - 内嵌迁移：SQL 文件随二进制发布，无需外部目录。
  - 辅助工具：BuildDatabaseURL 拼接 SQLite 连接 URL。
*/
package migration
