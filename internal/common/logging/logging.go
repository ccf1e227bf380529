package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// New builds the service logger. Unknown levels fall back to info.
// Production environments log JSON; everything else gets the prefixed
// text formatter.
func New(service, level, env string) *logrus.Entry {
	return NewWithOutput(os.Stdout, service, level, env)
}

func NewWithOutput(w io.Writer, service, level, env string) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&prefixed.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
			ForceFormatting: true,
		})
	}
	return log.WithField("prefix", service)
}
