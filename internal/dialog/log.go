package dialog

import (
	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/logging"
)

// Log is a Dialog that writes to a logger. Confirm answers with a fixed
// value. It is used headless and when no menu program is installed.
type Log struct {
	logger *log.Logger
	answer bool
}

// NewLog returns a Log dialog whose Confirm always returns answer.
func NewLog(logger *log.Logger, answer bool) *Log {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Log{logger: logger, answer: answer}
}

func (d *Log) ShowError(message string) error {
	d.logger.Error(message)
	return nil
}

func (d *Log) Confirm(title, message string) (bool, error) {
	d.logger.Warn(title, "message", message, "answer", d.answer)
	return d.answer, nil
}
