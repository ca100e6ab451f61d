package board

import (
	log "github.com/sirupsen/logrus"
)

// Intent names a user action on the board.
type Intent string

const (
	IntentLoad            Intent = "load"
	IntentCreate          Intent = "create"
	IntentDelete          Intent = "delete"
	IntentMove            Intent = "move"
	IntentEditTitle       Intent = "edit-title"
	IntentEditDescription Intent = "edit-description"
)

// Reporter receives every failed intent.
type Reporter interface {
	Report(intent Intent, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Intent, error)

func (f ReporterFunc) Report(intent Intent, err error) { f(intent, err) }

// LogReporter writes failed intents to a logrus logger.
type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) Report(intent Intent, err error) {
	logger := r.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger.WithField("intent", string(intent)).WithError(err).Error("board action failed")
}
