package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fleetdocs/internal/model"
)

func document(id string, kind model.DocumentKind, customName string, expiry *string, uploadedAt time.Time) model.Document {
	return model.Document{
		Base:       model.Base{UUID: id},
		Kind:       kind,
		CustomName: customName,
		ExpiryDate: expiry,
		UploadedAt: uploadedAt,
	}
}

func TestLatestForPicksFurthestExpiry(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		document("old", model.InsuranceKind, "", datePtr("2026-04-01"), uploaded),
		document("renewal", model.InsuranceKind, "", datePtr("2027-04-01"), uploaded.AddDate(0, 0, 1)),
	}

	governing := LatestFor(docs, model.InsuranceKind, "")
	require.NotNil(t, governing)
	require.Equal(t, "renewal", governing.UUID)
}

func TestLatestForRenewalSupersedesRegardlessOfOrder(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		document("renewal", model.InsuranceKind, "", datePtr("2027-04-01"), uploaded.AddDate(0, 0, 1)),
		document("old", model.InsuranceKind, "", datePtr("2026-04-01"), uploaded),
	}

	governing := LatestFor(docs, model.InsuranceKind, "")
	require.NotNil(t, governing)
	require.Equal(t, "renewal", governing.UUID)
}

func TestLatestForExpiredScanNeverOverridesValidOne(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		document("valid", model.FitnessKind, "", datePtr("2027-01-01"), uploaded),
		// An old expired scan uploaded later must not win
		document("expired", model.FitnessKind, "", datePtr("2025-01-01"), uploaded.AddDate(0, 1, 0)),
	}

	governing := LatestFor(docs, model.FitnessKind, "")
	require.NotNil(t, governing)
	require.Equal(t, "valid", governing.UUID)
}

func TestLatestForTieBreaksOnUploadTime(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		document("first", model.PollutionKind, "", datePtr("2026-06-01"), uploaded),
		document("second", model.PollutionKind, "", datePtr("2026-06-01"), uploaded.Add(time.Hour)),
	}

	governing := LatestFor(docs, model.PollutionKind, "")
	require.NotNil(t, governing)
	require.Equal(t, "second", governing.UUID)
}

func TestLatestForIgnoresDocumentsWithoutExpiry(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		document("no-expiry", model.PermitKind, "", nil, uploaded),
		document("bad-expiry", model.PermitKind, "", datePtr("soon"), uploaded),
	}

	require.Nil(t, LatestFor(docs, model.PermitKind, ""))
}

func TestLatestForSeparatesCustomNames(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		document("state", model.OtherKind, "State permit", datePtr("2026-06-01"), uploaded),
		document("city", model.OtherKind, "City permit", datePtr("2027-06-01"), uploaded),
	}

	governing := LatestFor(docs, model.OtherKind, "State permit")
	require.NotNil(t, governing)
	require.Equal(t, "state", governing.UUID)
}

func TestTrackedObligations(t *testing.T) {
	uploaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	vehicle := &model.Vehicle{
		Documents: []model.Document{
			document("d1", model.OtherKind, "City permit", nil, uploaded),
			document("d2", model.InsuranceKind, "", datePtr("2026-06-01"), uploaded),
			// Duplicate pair, must appear once
			document("d3", model.InsuranceKind, "", datePtr("2027-06-01"), uploaded),
			document("d4", model.OtherKind, "State permit", nil, uploaded),
		},
	}

	obligations := TrackedObligations(vehicle)
	require.Equal(t, []model.Obligation{
		{Kind: model.InsuranceKind},
		{Kind: model.OtherKind, CustomName: "City permit"},
		{Kind: model.OtherKind, CustomName: "State permit"},
	}, obligations)
}

func TestTrackedObligationsEmptyVehicle(t *testing.T) {
	require.Empty(t, TrackedObligations(&model.Vehicle{}))
}
