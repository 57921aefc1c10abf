package inject

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// NewLogger builds the application logger. JSON output in production,
// human-readable text everywhere else.
func NewLogger(v *viper.Viper) *log.Logger {
	logger := log.New()
	logger.Out = os.Stderr

	if IsProduction() {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{})
	}

	level := "info"
	if v != nil {
		level = v.GetString(cfgLogLevel)
	}

	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}

	return logger
}
