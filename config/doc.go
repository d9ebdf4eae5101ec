// Package config 提供 FlowGraph 的配置管理功能。
//
// 包含配置加载、默认值与校验。
// 支持从 YAML 文件和环境变量加载配置，
// 环境变量覆盖文件中的同名配置项。
package config
