// Package logging sets up the shared zap logger: human-readable console
// output plus a JSON file under the log directory, so `maestro logs` can
// show what past sessions did.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile is used when logging.file is not configured.
const DefaultLogFile = "logs/maestro.log"

// New builds the logger. Console output shows info and above (debug when
// requested); the file sink always records debug so sessions can be
// reconstructed afterwards.
func New(logFile string, debug bool) (*zap.Logger, error) {
	if logFile == "" {
		logFile = DefaultLogFile
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleLevel := zapcore.InfoLevel
	if debug {
		consoleLevel = zapcore.DebugLevel
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), consoleLevel),
		zapcore.NewCore(fileEncoder, zapcore.Lock(zapcore.AddSync(file)), zapcore.DebugLevel),
	)

	return zap.New(core), nil
}

// RecentLines returns the last n lines of the log file. A missing file is
// an empty history, not an error.
func RecentLines(logFile string, n int) ([]string, error) {
	if logFile == "" {
		logFile = DefaultLogFile
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
