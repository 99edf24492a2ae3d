package services

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// TrackTime logs how long op took at debug level. Extra fields identify what
// the operation ran against, e.g. the account and source ref of an ingestion.
func TrackTime(op string, start time.Time, fields log.Fields) {
	entry := log.WithField("op", op)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.WithField("elapsed_ms", time.Since(start).Milliseconds()).Debug("operation finished")
}
