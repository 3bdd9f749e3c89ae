package compliance

import (
	"time"

	"example.com/fleetdocs/internal/model"
)

// Summarize walks the fleet and produces the dashboard counters.
//
// The vehicle-level breakdown uses OverallStatus precedence and always sums
// to the vehicle count. The document-level counts are an independent flat
// tally over every tracked obligation's governing document, so one vehicle
// can contribute to several per-kind counters.
//
// The summary is computed into a fresh value and only returned once complete,
// so a concurrent reader never observes a partial result.
func Summarize(fleet []model.Vehicle, today time.Time, warningDays int) *model.FleetSummary {
	summary := &model.FleetSummary{
		TotalVehicles:   len(fleet),
		PerKindExpiring: make(map[model.DocumentKind]int),
		PerKindOverdue:  make(map[model.DocumentKind]int),
		ComplianceBreakdown: map[model.ComplianceStatus]int{
			model.CompliantStatus:    0,
			model.ExpiringSoonStatus: 0,
			model.OverdueStatus:      0,
			model.MissingInfoStatus:  0,
		},
		GeneratedAt: today,
	}

	for i := range fleet {
		vehicle := &fleet[i]

		overall := OverallStatus(vehicle, today, warningDays)
		summary.ComplianceBreakdown[overall]++
		if overall == model.CompliantStatus {
			summary.CompliantVehicles++
		}

		for _, os := range EvaluateObligations(vehicle, today, warningDays) {
			switch os.Status {
			case model.ExpiringSoonStatus:
				summary.ExpiringSoonDocuments++
				summary.PerKindExpiring[os.Obligation.Kind]++
			case model.OverdueStatus:
				summary.OverdueDocuments++
				summary.PerKindOverdue[os.Obligation.Kind]++
			}
		}
	}

	return summary
}
