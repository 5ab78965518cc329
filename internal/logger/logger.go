package logger

import (
	"encoding/json"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	currentLevel  = LevelInfo
	currentFormat = FormatText
	logger        = stdlog.New(os.Stdout, "", 0)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetFormat selects the output format: "text" or "json".
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case FormatText, FormatJSON:
		currentFormat = strings.ToLower(format)
	}
}

// SetOutput redirects log output. Accepts "stdout", "stderr" or a file path.
// The file is opened in append mode and created if missing.
func SetOutput(output string) error {
	switch output {
	case "", "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %q: %w", output, err)
		}
		logger.SetOutput(f)
	}
	return nil
}

func log(level Level, format string, v ...any) {
	if level < currentLevel {
		return
	}

	now := time.Now()
	message := fmt.Sprintf(format, v...)

	if currentFormat == FormatJSON {
		entry, err := json.Marshal(map[string]string{
			"time":    now.Format(time.RFC3339),
			"level":   level.String(),
			"message": message,
		})
		if err == nil {
			logger.Println(string(entry))
		}
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	logger.Println(prefix + message)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
