package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	TraceLevel LogLevel = iota + 1
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	NoLevel
)

func (l LogLevel) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case NoLevel:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a config string to a level, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "none", "disable", "disabled":
		return NoLevel
	default:
		return InfoLevel
	}
}

var (
	colorReset  = "\033[0m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// Logger is a small leveled logger with prefix and field support. A Logger
// value is safe for concurrent use; the With* methods return clones sharing
// the same output.
type Logger struct {
	mu     *sync.Mutex
	level  LogLevel
	prefix string
	output io.Writer
	color  bool
	fields map[string]any
	err    error
}

func NewLogger(prefix string) *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		level:  InfoLevel,
		prefix: prefix,
		output: os.Stderr,
	}
}

func (l *Logger) SetLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	return l
}

func (l *Logger) SetLevelString(level string) *Logger {
	return l.SetLevel(ParseLogLevel(level))
}

func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	return l
}

func (l *Logger) SetColor(enabled bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = enabled
	return l
}

func (l *Logger) clone() *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	fields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		mu:     l.mu,
		level:  l.level,
		prefix: l.prefix,
		output: l.output,
		color:  l.color,
		fields: fields,
		err:    l.err,
	}
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	c := l.clone()
	c.prefix = prefix
	return c
}

func (l *Logger) WithError(err error) *Logger {
	c := l.clone()
	c.err = err
	return c
}

func (l *Logger) WithField(key string, value any) *Logger {
	c := l.clone()
	if c.fields == nil {
		c.fields = make(map[string]any)
	}
	c.fields[key] = value
	return c
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	c := l.clone()
	if c.fields == nil {
		c.fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

func (l *Logger) Trace(format string, args ...any) { l.log(TraceLevel, format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.log(DebugLevel, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(InfoLevel, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(WarnLevel, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(ErrorLevel, format, args...) }

func (l *Logger) log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || l.level == NoLevel {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	var b strings.Builder
	b.WriteString(l.paint(colorDim, time.Now().Format("2006-01-02 15:04:05.000")))
	b.WriteByte(' ')
	b.WriteString(l.paint(levelColor(level), fmt.Sprintf("%-5s", level.String())))
	if l.prefix != "" {
		b.WriteString(" [" + l.prefix + "]")
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, l.fields[k]))
		}
	}
	if l.err != nil {
		b.WriteString(l.paint(colorRed, fmt.Sprintf(" error=%q", l.err.Error())))
	}
	b.WriteByte('\n')

	fmt.Fprint(l.output, b.String())
}

func (l *Logger) paint(color, s string) string {
	if !l.color {
		return s
	}
	return color + s + colorReset
}

func levelColor(level LogLevel) string {
	switch level {
	case TraceLevel:
		return colorCyan
	case DebugLevel:
		return colorBlue
	case WarnLevel:
		return colorYellow
	case ErrorLevel:
		return colorRed
	default:
		return colorReset
	}
}
