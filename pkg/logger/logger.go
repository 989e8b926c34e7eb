package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger with the given level and format. Unknown levels fall
// back to info; format "json" selects structured output, anything else
// the colored text formatter.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return logger
}
