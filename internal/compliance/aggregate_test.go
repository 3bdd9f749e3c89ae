package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fleetdocs/internal/model"
)

// essentialDocs builds one valid governing document for each essential kind
func essentialDocs(today time.Time, uploaded time.Time) []model.Document {
	return []model.Document{
		document("ins", model.InsuranceKind, "", dateFromToday(today, 200), uploaded),
		document("fit", model.FitnessKind, "", dateFromToday(today, 200), uploaded),
		document("pol", model.PollutionKind, "", dateFromToday(today, 200), uploaded),
	}
}

func TestOverallStatusCompliant(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)
	vehicle := &model.Vehicle{Documents: essentialDocs(today, uploaded)}

	require.Equal(t, model.CompliantStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestOverallStatusOverdueDominatesExpiring(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)
	vehicle := &model.Vehicle{
		Documents: []model.Document{
			document("ins", model.InsuranceKind, "", dateFromToday(today, 10), uploaded),
			document("fit", model.FitnessKind, "", dateFromToday(today, -5), uploaded),
			document("pol", model.PollutionKind, "", dateFromToday(today, 200), uploaded),
		},
	}

	require.Equal(t, model.OverdueStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestOverallStatusOverdueDominatesMissingEssential(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)

	// Overdue insurance and no pollution document at all: overdue wins
	vehicle := &model.Vehicle{
		Documents: []model.Document{
			document("ins", model.InsuranceKind, "", dateFromToday(today, -3), uploaded),
			document("fit", model.FitnessKind, "", dateFromToday(today, 200), uploaded),
		},
	}

	require.Equal(t, model.OverdueStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestOverallStatusExpiringSoon(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)
	docs := essentialDocs(today, uploaded)
	docs[0].ExpiryDate = dateFromToday(today, 10)
	vehicle := &model.Vehicle{Documents: docs}

	require.Equal(t, model.ExpiringSoonStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestOverallStatusMissingEssential(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)

	// Valid insurance and fitness, pollution never uploaded
	vehicle := &model.Vehicle{
		Documents: []model.Document{
			document("ins", model.InsuranceKind, "", dateFromToday(today, 200), uploaded),
			document("fit", model.FitnessKind, "", dateFromToday(today, 200), uploaded),
		},
	}

	require.Equal(t, model.MissingInfoStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestOverallStatusNoDocuments(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	require.Equal(t, model.MissingInfoStatus, OverallStatus(&model.Vehicle{}, today, DefaultWarningDays))
}

func TestOverallStatusNonEssentialMissingDoesNotDegrade(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)

	// A permit document with no expiry date is an ungoverned obligation,
	// but permits are not essential
	docs := append(essentialDocs(today, uploaded),
		document("permit", model.PermitKind, "", nil, uploaded))
	vehicle := &model.Vehicle{Documents: docs}

	require.Equal(t, model.CompliantStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestOverallStatusRenewalRestoresCompliance(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)

	docs := essentialDocs(today, uploaded)
	docs[0].ExpiryDate = dateFromToday(today, -5)
	vehicle := &model.Vehicle{Documents: docs}
	require.Equal(t, model.OverdueStatus, OverallStatus(vehicle, today, DefaultWarningDays))

	// Uploading a renewal flips the vehicle back without touching history
	vehicle.Documents = append(vehicle.Documents,
		document("renewal", model.InsuranceKind, "", dateFromToday(today, 365), today))
	require.Equal(t, model.CompliantStatus, OverallStatus(vehicle, today, DefaultWarningDays))
}

func TestEvaluateObligationsReportsGoverningDocument(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	uploaded := today.AddDate(0, -1, 0)
	vehicle := &model.Vehicle{
		Documents: []model.Document{
			document("old", model.InsuranceKind, "", dateFromToday(today, 5), uploaded),
			document("renewal", model.InsuranceKind, "", dateFromToday(today, 365), today),
			document("no-expiry", model.PermitKind, "", nil, uploaded),
		},
	}

	statuses := EvaluateObligations(vehicle, today, DefaultWarningDays)
	require.Len(t, statuses, 2)

	require.Equal(t, model.InsuranceKind, statuses[0].Obligation.Kind)
	require.Equal(t, "renewal", statuses[0].Governing.UUID)
	require.Equal(t, model.CompliantStatus, statuses[0].Status)

	require.Equal(t, model.PermitKind, statuses[1].Obligation.Kind)
	require.Nil(t, statuses[1].Governing)
	require.Equal(t, model.MissingStatus, statuses[1].Status)
}
