package compliance

import (
	"time"

	"example.com/fleetdocs/internal/model"
)

// ObligationStatus pairs a tracked obligation with its governing document and
// the status derived from it.
type ObligationStatus struct {
	Obligation model.Obligation
	Governing  *model.Document
	Status     model.ComplianceStatus
}

// EvaluateObligations resolves the governing document and status for every
// tracked obligation of the vehicle.
func EvaluateObligations(vehicle *model.Vehicle, today time.Time, warningDays int) []ObligationStatus {
	obligations := TrackedObligations(vehicle)
	statuses := make([]ObligationStatus, 0, len(obligations))

	for _, obligation := range obligations {
		governing := LatestFor(vehicle.Documents, obligation.Kind, obligation.CustomName)

		status := model.MissingStatus
		if governing != nil {
			status = Classify(governing.ExpiryDate, today, warningDays)
		}

		statuses = append(statuses, ObligationStatus{
			Obligation: obligation,
			Governing:  governing,
			Status:     status,
		})
	}

	return statuses
}

// OverallStatus combines the governing document of each tracked obligation
// into one vehicle-level verdict.
//
// Overdue dominates, then ExpiringSoon. MissingInfo is only evaluated once
// neither applies: a vehicle that is both overdue on one document and missing
// another essential one reports Overdue. A vehicle with no documents at all
// is MissingInfo.
func OverallStatus(vehicle *model.Vehicle, today time.Time, warningDays int) model.ComplianceStatus {
	statuses := EvaluateObligations(vehicle, today, warningDays)

	anyExpiring := false
	governed := make(map[model.DocumentKind]bool)
	for _, os := range statuses {
		switch os.Status {
		case model.OverdueStatus:
			return model.OverdueStatus
		case model.ExpiringSoonStatus:
			anyExpiring = true
		}
		if os.Governing != nil {
			governed[os.Obligation.Kind] = true
		}
	}

	if anyExpiring {
		return model.ExpiringSoonStatus
	}

	for _, kind := range model.EssentialKinds {
		if !governed[kind] {
			return model.MissingInfoStatus
		}
	}

	return model.CompliantStatus
}
