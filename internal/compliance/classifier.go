package compliance

import (
	"time"

	"example.com/fleetdocs/internal/dates"
	"example.com/fleetdocs/internal/model"
)

// DefaultWarningDays is the warning window applied when no override is configured
const DefaultWarningDays = 30

// Classify maps a document's expiry date to its compliance status.
//
// A nil or unparseable expiry date is MissingStatus. A date strictly before
// today is OverdueStatus (a document expiring today is not yet overdue). A
// date within the warning window is ExpiringSoonStatus; the window is an
// exclusive upper bound, so a document expiring in exactly warningDays days
// is still CompliantStatus.
//
// Pure and total: no side effects, never panics.
func Classify(expiryDate *string, today time.Time, warningDays int) model.ComplianceStatus {
	if expiryDate == nil {
		return model.MissingStatus
	}

	expiry, ok := dates.Parse(*expiryDate)
	if !ok {
		return model.MissingStatus
	}

	if dates.BeforeToday(expiry, today) {
		return model.OverdueStatus
	}

	if dates.DaysUntil(expiry, today) < warningDays {
		return model.ExpiringSoonStatus
	}

	return model.CompliantStatus
}
