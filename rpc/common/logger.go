package common

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// nxdsLogger implements the ILogger interface with custom formatting
type nxdsLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

var (
	debugLabel = color.New(color.FgHiBlack).Sprintf("%-5s", "DEBUG")
	infoLabel  = color.New(color.FgCyan).Sprintf("%-5s", "INFO")
	warnLabel  = color.New(color.FgYellow).Sprintf("%-5s", "WARN")
	errorLabel = color.New(color.FgRed, color.Bold).Sprintf("%-5s", "ERROR")
)

func (l *nxdsLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *nxdsLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log(debugLabel, format, args...)
	}
}

func (l *nxdsLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log(infoLabel, format, args...)
	}
}

func (l *nxdsLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log(warnLabel, format, args...)
	}
}

func (l *nxdsLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log(errorLabel, format, args...)
	}
}

func (l *nxdsLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *nxdsLogger) log(label string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("| %s | %-13s | %s", label, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements dragonboat's logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	// Create standard logger with custom flags
	stdLogger := log.New(os.Stdout, "", log.Ldate|log.Ltime)

	return &nxdsLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: stdLogger,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames lists the package loggers of the application
var loggerNames = []string{"relay", "store", "transport/rpc", "rpc", "client"}

// InitLoggers installs the custom logger factory and sets the level of all
// application loggers. It must be called before the first logger is used.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
