// Package log builds the logrus logger used by the fixscan CLI.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/rawbytedev/fixscan/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeFormat = "2006-01-02 15:04:05.000"

// New returns a logger writing to console and, when enabled, to a rotating
// file. The returned closer releases the file and is never nil.
func New(cfg config.LogConfig, console io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timeFormat})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timeFormat})
	default:
		return nil, nil, fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	out := console
	if cfg.File.Enabled {
		fw, err := fileWriter(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(console, fw)
		closer = fw
	}
	logger.SetOutput(out)
	return logger, closer, nil
}

func fileWriter(fc config.FileConfig) (*lumberjack.Logger, error) {
	if fc.Path == "" {
		return nil, fmt.Errorf("file output requires 'path' field")
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
