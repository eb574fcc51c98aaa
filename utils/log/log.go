package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	// JSON logs in prod for ingestion by the log collector, plain text
	// elsewhere for readability.
	if os.Getenv("GEOMUX_ENV") == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = logger.WithFields(
		logrus.Fields{"service": os.Getenv("GEOMUX_SERVICE"), "is_development": os.Getenv("GEOMUX_ENV") != "prod"},
	)
}
