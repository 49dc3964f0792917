package shell

import (
	"os"
	"path/filepath"

	"github.com/peterh/liner"
)

const historyName = ".filmcatalog_history"

// Terminal is a line editor with completion and persistent history
type Terminal struct {
	*liner.State
	historyPath string
}

// HistoryFile returns the default history location in the home directory
func HistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyName)
}

// OpenTerminal puts the terminal in raw mode and loads history from
// historyPath. An empty path disables history.
func OpenTerminal(historyPath string, complete liner.Completer) *Terminal {
	t := &Terminal{State: liner.NewLiner(), historyPath: historyPath}
	t.SetCtrlCAborts(true)
	t.SetCompleter(complete)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = t.ReadHistory(f)
			f.Close()
		}
	}
	return t
}

// Close saves history and restores the terminal
func (t *Terminal) Close() error {
	if t.historyPath != "" {
		if f, err := os.Create(t.historyPath); err == nil {
			_, _ = t.WriteHistory(f)
			f.Close()
		}
	}
	return t.State.Close()
}
