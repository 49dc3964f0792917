package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
)

// Manager owns the per-run output directory: the log file and JSON exports
type Manager struct {
	baseDir   string
	timestamp string
	logFile   *os.File
	log       zerolog.Logger
}

// NewManager creates <baseDir>/<timestamp>/logs and returns a manager whose
// logger writes to console and to logs/filmcatalog.log.
func NewManager(baseDir string, console io.Writer, level zerolog.Level) (*Manager, error) {
	timestamp := time.Now().Format("20060102_150405")

	outputPath := filepath.Join(baseDir, timestamp)
	logsDir := filepath.Join(outputPath, "logs")
	if err := os.MkdirAll(logsDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(logsDir, "filmcatalog.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	consoleWriter := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = console
	})
	multiWriter := zerolog.MultiLevelWriter(consoleWriter, logFile)

	combinedLogger := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Manager{
		baseDir:   outputPath,
		timestamp: timestamp,
		logFile:   logFile,
		log:       combinedLogger,
	}, nil
}

// WriteJSON atomically writes data to <prefix>_<timestamp>.json in the output
// directory and returns the file's path. A later export with the same prefix
// replaces the earlier one.
func (om *Manager) WriteJSON(data interface{}, prefix string) (string, error) {
	filename := fmt.Sprintf("%s_%s.json", prefix, om.timestamp)
	outputPath := filepath.Join(om.baseDir, filename)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode data to JSON: %w", err)
	}

	if err := atomic.WriteFile(outputPath, &buf); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	om.log.Debug().
		Str("file", outputPath).
		Str("prefix", prefix).
		Msg("Wrote data to JSON file")
	return outputPath, nil
}

func (om *Manager) Logger() zerolog.Logger {
	return om.log
}

func (om *Manager) Path(filename string) string {
	return filepath.Join(om.baseDir, filename)
}

func (om *Manager) BaseDir() string {
	return om.baseDir
}

func (om *Manager) Close() error {
	return om.logFile.Close()
}
