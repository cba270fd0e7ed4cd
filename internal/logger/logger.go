package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
}

// SetLevel задает минимальный уровень логирования
func SetLevel(l Level) {
	level.Store(int32(l))
}

// ParseLevel понимает debug/info/warn/error, остальное - info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func enabled(l Level) bool {
	return int32(l) >= level.Load()
}

func Debug(ctx context.Context, msg string, kv ...any) {
	if enabled(LevelDebug) {
		write(ctx, "DEBUG", msg, kv)
	}
}

func Info(ctx context.Context, msg string, kv ...any) {
	if enabled(LevelInfo) {
		write(ctx, "INFO", msg, kv)
	}
}

func Warn(ctx context.Context, msg string, kv ...any) {
	if enabled(LevelWarn) {
		write(ctx, "WARN", msg, kv)
	}
}

// Error пишет сообщение вместе с ошибкой, если она есть
func Error(ctx context.Context, err error, msg string, kv ...any) {
	if !enabled(LevelError) {
		return
	}
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	write(ctx, "ERROR", msg, kv)
}

type ctxKey struct{}

// WithFields добавляет пары ключ-значение, которые попадут в каждую запись с этим контекстом
func WithFields(ctx context.Context, kv ...any) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]any)
	fields := make([]any, 0, len(prev)+len(kv))
	fields = append(fields, prev...)
	fields = append(fields, kv...)
	return context.WithValue(ctx, ctxKey{}, fields)
}

func write(ctx context.Context, lvl, msg string, kv []any) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(lvl)
	b.WriteString("] ")
	b.WriteString(msg)

	if ctx != nil {
		if fields, ok := ctx.Value(ctxKey{}).([]any); ok {
			appendFields(&b, fields)
		}
	}
	appendFields(&b, kv)

	log.Print(b.String())
}

func appendFields(b *strings.Builder, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			fmt.Fprintf(b, " %s=<missing>", key)
			break
		}
		fmt.Fprintf(b, " %s=%v", key, kv[i+1])
	}
}
