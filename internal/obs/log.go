package obs

import (
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLog parses the level and points the shared logger at either stderr or a
// rotated log file. An empty or "console" path keeps the default output.
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	if logPath != "" && logPath != "console" {
		log.SetOutput(io.Writer(&lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	log.SetLevel(level)
	return nil
}
