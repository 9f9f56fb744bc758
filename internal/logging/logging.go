// Package logging builds the process-wide logrus logger from config, the
// same JSONFormatter/TextFormatter split the HealthLogger component uses
// for its own dedicated logger instance.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New constructs a *logrus.Logger writing to stdout, formatted per format
// ("json" or "pretty") and filtered at level. An unrecognized level falls
// back to info; an unrecognized format falls back to pretty (text).
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
