// Copyright (c) 2025 tgram-dev

package telegram

import "github.com/tgram-dev/tgram/internal/utils"

// Logger is the leveled logger exposed as Client.Log. Swap its output or
// level at runtime; the With* methods return clones scoped to a prefix,
// field set or error.
type Logger = utils.Logger

// LogLevel re-exports the logger's level type for Client.Log.SetLevel.
type LogLevel = utils.LogLevel

const (
	TraceLevel = utils.TraceLevel
	DebugLevel = utils.DebugLevel
	InfoLevel  = utils.InfoLevel
	WarnLevel  = utils.WarnLevel
	ErrorLevel = utils.ErrorLevel
	NoLevel    = utils.NoLevel
)

// Level names accepted by ClientConfig.LogLevel.
const (
	LogTrace   = "trace"
	LogDebug   = "debug"
	LogInfo    = "info"
	LogWarn    = "warn"
	LogError   = "error"
	LogDisable = "disable"
)
