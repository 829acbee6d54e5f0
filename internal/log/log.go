package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

type Fields = logrus.Fields

// Options configure the process-wide logger. Only the first call to Init wins.
type Options struct {
	Verbose bool
	File    string // optional rotating log file
}

// Init builds the process-wide logger.
func Init(opts Options) *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
		if opts.Verbose {
			logger.SetLevel(logrus.DebugLevel)
		}

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        false,
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			FieldsOrder:     []string{callerKey},
		})

		writers := []io.Writer{os.Stderr}
		if opts.File != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}

		logger.SetOutput(io.MultiWriter(writers...))
	})

	return logger
}

// Logger returns the process-wide logger, initializing it with defaults if needed.
func Logger() *logrus.Logger {
	return Init(Options{})
}

func Debug(fields Fields, msg string) {
	entry(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	entry(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	entry(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	entry(fields).Error(msg)
}

// callerKey holds "file:line (func)" of the code that called one of the helpers.
const callerKey = "caller"

// entry copies fields and tags them with the helper's caller.
func entry(fields Fields) *logrus.Entry {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[callerKey] = caller(3)
	return Logger().WithFields(out)
}

func caller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	name := "?"
	if fn := runtime.FuncForPC(pc); fn != nil {
		parts := strings.Split(fn.Name(), ".")
		name = parts[len(parts)-1]
	}
	return fmt.Sprintf("%s:%d (%s)", path.Base(file), line, name)
}
