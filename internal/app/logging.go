package app

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SetupLogging настраивает logrus по LOG_LEVEL и LOG_FORMAT (text|json).
func SetupLogging(lookup func(string) (string, bool)) []string {
	env := envReader{lookup: lookup}

	format, _ := env.get("LOG_FORMAT")
	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		env.warnings = append(env.warnings, fmt.Sprintf("LOG_FORMAT=%q ignored: expected text or json", format))
	}

	level := log.InfoLevel
	if raw, ok := env.get("LOG_LEVEL"); ok {
		parsed, err := log.ParseLevel(raw)
		if err != nil {
			env.warn("LOG_LEVEL", raw, err)
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)
	return env.warnings
}
