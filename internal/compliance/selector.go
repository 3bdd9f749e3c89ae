package compliance

import (
	"example.com/fleetdocs/internal/dates"
	"example.com/fleetdocs/internal/model"
)

// LatestFor picks the governing document among a vehicle's history for one
// (kind, custom name) pair.
//
// Only documents with a parseable expiry date are candidates: a document
// without one is inert history and can never govern. Among candidates the
// document expiring furthest in the future wins, so a fresh renewal
// immediately supersedes an about-to-expire one and an old already-expired
// scan never overrides a newer valid one. Ties break on the later upload.
//
// Returns nil when no matching document has an expiry date.
func LatestFor(documents []model.Document, kind model.DocumentKind, customName string) *model.Document {
	var governing *model.Document

	for i := range documents {
		doc := &documents[i]
		if doc.Kind != kind || doc.CustomName != customName {
			continue
		}
		if doc.ExpiryDate == nil {
			continue
		}
		expiry, ok := dates.Parse(*doc.ExpiryDate)
		if !ok {
			continue
		}

		if governing == nil {
			governing = doc
			continue
		}

		// governing always has a parseable expiry by construction
		current, _ := dates.Parse(*governing.ExpiryDate)
		if expiry.After(current) {
			governing = doc
		} else if expiry.Equal(current) && doc.UploadedAt.After(governing.UploadedAt) {
			governing = doc
		}
	}

	return governing
}

// TrackedObligations enumerates the (kind, custom name) pairs the vehicle has
// at least one document for, in kind order and first-seen order within a kind.
// A kind only counts toward compliance once a document of that kind exists.
func TrackedObligations(vehicle *model.Vehicle) []model.Obligation {
	seen := make(map[model.Obligation]bool)
	byKind := make(map[model.DocumentKind][]model.Obligation)

	for _, doc := range vehicle.Documents {
		customName := doc.CustomName
		if doc.Kind != model.OtherKind {
			customName = ""
		}
		obligation := model.Obligation{Kind: doc.Kind, CustomName: customName}
		if seen[obligation] {
			continue
		}
		seen[obligation] = true
		byKind[doc.Kind] = append(byKind[doc.Kind], obligation)
	}

	var obligations []model.Obligation
	for _, kind := range model.Kinds {
		obligations = append(obligations, byKind[kind]...)
	}
	return obligations
}
