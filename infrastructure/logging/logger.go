package logging

import (
	"io"

	"form_filler/infrastructure/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Redactor masks secrets in log messages.
type Redactor interface {
	Redact(message string) string
}

// New builds the run logger. Entries go to console and, when cfg.File is set, are
// appended to a size-rotated log file. The returned closer releases the file.
func New(cfg config.LoggerConfig, console io.Writer) (*logrus.Logger, io.Closer) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var closer io.Closer = nopCloser{}
	out := console
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}
	logger.SetOutput(out)

	if err != nil {
		logger.Warnf("Unknown log level %q, using info", cfg.Level)
	}
	return logger, closer
}

// AttachRedactor makes every entry pass through r before it is written.
func AttachRedactor(logger *logrus.Logger, r Redactor) {
	logger.AddHook(&redactHook{redactor: r})
}

type redactHook struct {
	redactor Redactor
}

func (h *redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *redactHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.redactor.Redact(entry.Message)
	for k, v := range entry.Data {
		if s, ok := v.(string); ok {
			entry.Data[k] = h.redactor.Redact(s)
		}
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
