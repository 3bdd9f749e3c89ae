package model

import (
	"strings"
	"time"
)

// Base model fields shared by all models
type Base struct {
	UUID      string    `json:"uuid" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentKind defines the kind of regulatory document
type DocumentKind string

const (
	// InsuranceKind represents an insurance policy document
	InsuranceKind DocumentKind = "insurance"
	// FitnessKind represents a fitness certificate
	FitnessKind DocumentKind = "fitness"
	// PollutionKind represents a pollution-under-control certificate
	PollutionKind DocumentKind = "pollution"
	// PermitKind represents a transport permit
	PermitKind DocumentKind = "permit"
	// RegistrationKind represents a registration card
	RegistrationKind DocumentKind = "registration"
	// OtherKind represents a document identified by a custom type name
	OtherKind DocumentKind = "other"
)

// Kinds lists all document kinds in display order.
var Kinds = []DocumentKind{
	InsuranceKind,
	FitnessKind,
	PollutionKind,
	PermitKind,
	RegistrationKind,
	OtherKind,
}

// EssentialKinds are the kinds whose total absence of a governing document
// forces a vehicle into MissingInfoStatus.
var EssentialKinds = []DocumentKind{
	InsuranceKind,
	FitnessKind,
	PollutionKind,
}

// KindFromString converts a string to a DocumentKind
func KindFromString(kind string) DocumentKind {
	switch strings.ToLower(kind) {
	case "insurance":
		return InsuranceKind
	case "fitness":
		return FitnessKind
	case "pollution":
		return PollutionKind
	case "permit":
		return PermitKind
	case "registration":
		return RegistrationKind
	case "other":
		return OtherKind
	default:
		return ""
	}
}

// Essential reports whether the kind is essential for vehicle compliance
func (k DocumentKind) Essential() bool {
	for _, e := range EssentialKinds {
		if k == e {
			return true
		}
	}
	return false
}

// Label returns a human-readable name for the kind
func (k DocumentKind) Label() string {
	labelMap := map[DocumentKind]string{
		InsuranceKind:    "Insurance",
		FitnessKind:      "Fitness certificate",
		PollutionKind:    "Pollution certificate",
		PermitKind:       "Permit",
		RegistrationKind: "Registration card",
		OtherKind:        "Other",
	}

	if label, ok := labelMap[k]; ok {
		return label
	}
	return "Unknown"
}

// ComplianceStatus defines the compliance state of a document or vehicle
type ComplianceStatus string

const (
	// CompliantStatus means the governing document is valid beyond the warning window
	CompliantStatus ComplianceStatus = "compliant"
	// ExpiringSoonStatus means the governing document expires within the warning window
	ExpiringSoonStatus ComplianceStatus = "expiring_soon"
	// OverdueStatus means the governing document expired before today
	OverdueStatus ComplianceStatus = "overdue"
	// MissingStatus means no expiry date has been established for the document
	MissingStatus ComplianceStatus = "missing"
	// MissingInfoStatus means an essential document was never uploaded for the vehicle
	MissingInfoStatus ComplianceStatus = "missing_info"
)

// Vehicle represents a fleet vehicle and owns its document history
type Vehicle struct {
	Base
	Registration string     `json:"registration" gorm:"column:registration;uniqueIndex"`
	Make         string     `json:"make"`
	Model        string     `json:"model"`
	Category     string     `json:"category"`
	Documents    []Document `json:"documents" gorm:"foreignKey:VehicleID"`
}

// NormalizeRegistration uppercases and trims a registration number so it can
// serve as the vehicle's business key.
func NormalizeRegistration(registration string) string {
	return strings.ToUpper(strings.TrimSpace(registration))
}

// Document represents a single uploaded document instance. Documents are
// append-only history: a renewal adds a new record, it never overwrites.
type Document struct {
	Base
	VehicleID       string       `json:"vehicle_id" gorm:"column:vehicle_id;type:uuid;index"`
	Vehicle         *Vehicle     `json:"-" gorm:"foreignKey:VehicleID"`
	Kind            DocumentKind `json:"kind" gorm:"column:kind"`
	CustomName      string       `json:"custom_name" gorm:"column:custom_name"`
	ReferenceNumber string       `json:"reference_number"`
	StartDate       *string      `json:"start_date"`
	ExpiryDate      *string      `json:"expiry_date"`
	UploadedAt      time.Time    `json:"uploaded_at"`
	Suggestions     []byte       `json:"suggestions,omitempty" gorm:"type:jsonb"`
}

// Obligation is a (kind, custom name) pair the vehicle is tracked against.
// Two OtherKind documents with different custom names are different obligations.
type Obligation struct {
	Kind       DocumentKind `json:"kind"`
	CustomName string       `json:"custom_name"`
}

// Label returns a human-readable name for the obligation
func (o Obligation) Label() string {
	if o.Kind == OtherKind && o.CustomName != "" {
		return o.CustomName
	}
	return o.Kind.Label()
}

// Alert represents a derived expiry warning for one obligation of one vehicle.
// Everything except the read flag is reconstructible from document state.
type Alert struct {
	Base
	VehicleID       string       `json:"vehicle_id" gorm:"column:vehicle_id;type:uuid;index"`
	Registration    string       `json:"registration"`
	Kind            DocumentKind `json:"kind"`
	CustomName      string       `json:"custom_name"`
	ReferenceNumber string       `json:"reference_number"`
	DueDate         string       `json:"due_date"`
	Message         string       `json:"message"`
	Read            bool         `json:"read"`
	OwnerID         string       `json:"owner_id" gorm:"column:owner_id;index"`
}

// AlertKey is the composite identity used to deduplicate alerts
type AlertKey struct {
	VehicleID       string
	Kind            DocumentKind
	CustomName      string
	DueDate         string
	ReferenceNumber string
	OwnerID         string
}

// Key returns the alert's composite dedup identity
func (a *Alert) Key() AlertKey {
	return AlertKey{
		VehicleID:       a.VehicleID,
		Kind:            a.Kind,
		CustomName:      a.CustomName,
		DueDate:         a.DueDate,
		ReferenceNumber: a.ReferenceNumber,
		OwnerID:         a.OwnerID,
	}
}

// AuditAction defines the type of audited action
type AuditAction string

const (
	// AuditCreateVehicle represents a vehicle creation
	AuditCreateVehicle AuditAction = "create-vehicle"
	// AuditUpdateVehicle represents a vehicle update
	AuditUpdateVehicle AuditAction = "update-vehicle"
	// AuditDeleteVehicle represents a vehicle deletion
	AuditDeleteVehicle AuditAction = "delete-vehicle"
	// AuditUploadDocument represents a document upload
	AuditUploadDocument AuditAction = "upload-document"
	// AuditUpdateDocument represents a document update
	AuditUpdateDocument AuditAction = "update-document"
	// AuditDeleteDocument represents a document deletion
	AuditDeleteDocument AuditAction = "delete-document"
	// AuditMarkAlertRead represents an alert acknowledgment
	AuditMarkAlertRead AuditAction = "mark-alert-read"
	// AuditViewReport represents a report view
	AuditViewReport AuditAction = "view-report"
	// AuditExportReport represents a report export
	AuditExportReport AuditAction = "export-report"
	// AuditSystemInit represents system initialization
	AuditSystemInit AuditAction = "system-init"
)

// AuditEntityType defines the entity an audit entry refers to
type AuditEntityType string

const (
	// VehicleEntity refers to a vehicle
	VehicleEntity AuditEntityType = "vehicle"
	// DocumentEntity refers to a document
	DocumentEntity AuditEntityType = "document"
	// AlertEntity refers to an alert
	AlertEntity AuditEntityType = "alert"
	// ReportEntity refers to a report
	ReportEntity AuditEntityType = "report"
	// SystemEntity refers to the system itself
	SystemEntity AuditEntityType = "system"
)

// AuditLogEntry represents a single immutable audit event.
// Entries are append-only and survive deletion of the entity they refer to.
type AuditLogEntry struct {
	Base
	UserID       string          `json:"user_id" gorm:"column:user_id;index"`
	Action       AuditAction     `json:"action" gorm:"index"`
	EntityType   AuditEntityType `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	Registration string          `json:"registration"`
	Details      []byte          `json:"details" gorm:"type:jsonb"`
}

// FleetSummary holds the dashboard counters for the whole fleet.
// ComplianceBreakdown always sums to TotalVehicles; the per-kind document
// counts are a flat tally with no precedence collapsing.
type FleetSummary struct {
	TotalVehicles         int                      `json:"total_vehicles"`
	CompliantVehicles     int                      `json:"compliant_vehicles"`
	ExpiringSoonDocuments int                      `json:"expiring_soon_documents"`
	OverdueDocuments      int                      `json:"overdue_documents"`
	PerKindExpiring       map[DocumentKind]int     `json:"per_kind_expiring"`
	PerKindOverdue        map[DocumentKind]int     `json:"per_kind_overdue"`
	ComplianceBreakdown   map[ComplianceStatus]int `json:"compliance_breakdown"`
	GeneratedAt           time.Time                `json:"generated_at"`
}
