package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

// New returns a logrus logger writing to stdout: JSON in production, coloured text otherwise.
// An unknown level falls back to info.
func New(level, env string) *logrus.Logger {
	l := NewWithWriter(level, os.Stdout)
	if env != "production" {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}
	return l
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(level string, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetOutput(w)

	return l
}
