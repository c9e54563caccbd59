package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Field struct {
	Key   string
	Value interface{}
}

var current atomic.Pointer[zerolog.Logger]

func init() {
	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Setup(os.Stdout, "info", "json")
}

// Setup replaces the process logger. format is "json" or "console"; unknown levels fall back to info.
func Setup(out io.Writer, level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if os.Getenv("DEBUG") == "1" {
		lvl = zerolog.DebugLevel
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	current.Store(&l)
}

// Zerolog exposes the underlying logger for libraries that want one.
func Zerolog() *zerolog.Logger { return current.Load() }

func log(ev *zerolog.Event, msg string, fields []Field, err error) {
	if err != nil {
		ev = ev.Err(err)
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func Info(msg string, fields ...Field) {
	log(current.Load().Info(), msg, fields, nil)
}

func Warn(msg string, fields ...Field) {
	log(current.Load().Warn(), msg, fields, nil)
}

func Error(msg string, err error, fields ...Field) {
	log(current.Load().Error(), msg, fields, err)
}

func Debug(msg string, fields ...Field) {
	log(current.Load().Debug(), msg, fields, nil)
}

func FieldKV(key string, value interface{}) Field { return Field{Key: key, Value: value} }
