// Package config loads blockstorm's configuration.
//
// Configuration is assembled from four layers, lowest precedence first:
//
//  1. Built-in defaults (Defaults)
//  2. The TOML file, blockstorm.toml by default
//  3. BLOCKSTORM_* environment variables
//  4. Overrides passed to Load, such as command line flags
//
// The merged tree is decoded into typed sections and validated with
// go-playground/validator struct tags:
//
//	[editor]
//	defaultTool = "paragraph"
//	skipEmptyInputBlocks = true
//
//	[tools]
//	scriptDir = "~/.config/blockstorm/tools"
//	callTimeout = "250ms"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "info"
//	format = "json"
//
//	[events]
//	queueSize = 1024
//	workers = 2
//
// Watch reloads the file on change and hands the new Config to a callback.
package config
