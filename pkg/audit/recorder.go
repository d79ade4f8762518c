package audit

import (
	"github.com/sirupsen/logrus"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Recorder fans one event out to the syslog logger and the database trail.
// Persistence is best effort: a failing audit database never fails the
// request being audited.
type Recorder struct {
	logger *Logger
	events store.AuditEvents
	log    logrus.FieldLogger
}

func NewRecorder(logger *Logger, events store.AuditEvents, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{logger: logger, events: events, log: log}
}

// Record emits the event.
func (r *Recorder) Record(event RequestEvent) {
	if r.logger != nil {
		r.logger.Log(event)
	}
	if r.events == nil {
		return
	}
	if err := r.events.Write(event.Row()); err != nil {
		r.log.WithError(err).WithField("action", event.Action).Warn("audit: failed to persist event")
	}
}

// Query reads back persisted events, newest first.
func (r *Recorder) Query(filter store.AuditFilter) ([]model.AuditEvent, error) {
	if r.events == nil {
		return nil, nil
	}
	return r.events.Query(filter)
}
