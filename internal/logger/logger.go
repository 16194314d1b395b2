package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chisomo/villagebank/internal/config"
)

// Init configures the global logrus logger from application config.
func Init(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		logrus.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.Logging.Level, err)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.ToLower(cfg.Logging.Format) == "json" || cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
