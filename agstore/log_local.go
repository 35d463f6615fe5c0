package agstore

import (
	"fmt"
	"log"

	"github.com/natefinch/lumberjack"
)

// LogConfig sets where log messages go and how log files are rotated.
type LogConfig struct {
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_log_size"` // megabytes
	MaxAge  int    `toml:"max_log_age"`  // days
}

// stdLogger writes through the standard log package, optionally into a rotating file.
type stdLogger struct {
	file *lumberjack.Logger
}

var logger Logger = stdLogger{}

// SetLogger sends log messages to the configured file, rotating it by size and age.
// Without a log file, messages stay on stderr.
func (c *LogConfig) SetLogger() {
	if c == nil || c.Logfile == "" {
		Infof("No log file configured; logging to stderr\n")
		return
	}
	fmt.Printf("Logging to %s\n", c.Logfile)
	f := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(f)
	logger = stdLogger{file: f}
}

func (stdLogger) Debugf(format string, args ...interface{})    { log.Printf(" DEBUG "+format, args...) }
func (stdLogger) Infof(format string, args ...interface{})     { log.Printf(" INFO "+format, args...) }
func (stdLogger) Warningf(format string, args ...interface{})  { log.Printf(" WARNING "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{})    { log.Printf(" ERROR "+format, args...) }
func (stdLogger) Criticalf(format string, args ...interface{}) { log.Printf(" CRITICAL "+format, args...) }

func (l stdLogger) Shutdown() {
	if l.file == nil {
		return
	}
	log.Printf(" INFO Closing log file %s\n", l.file.Filename)
	if err := l.file.Close(); err != nil {
		fmt.Printf("Error closing log file %s: %v\n", l.file.Filename, err)
	}
}
