package insurance

import "time"

// Coverage types.
const (
	CoverageMedical      = "medical"
	CoverageDental       = "dental"
	CoverageVision       = "vision"
	CoveragePrescription = "prescription"
	CoverageOther        = "other"
)

// Insurance document types.
const (
	DocumentInsuranceCard = "insurance-card"
	DocumentEOB           = "eob"
	DocumentPolicy        = "policy"
	DocumentClaim         = "claim"
	DocumentOther         = "other"
)

var coverageTypes = map[string]struct{}{
	CoverageMedical: {}, CoverageDental: {}, CoverageVision: {}, CoveragePrescription: {}, CoverageOther: {},
}

var documentTypes = map[string]struct{}{
	DocumentInsuranceCard: {}, DocumentEOB: {}, DocumentPolicy: {}, DocumentClaim: {}, DocumentOther: {},
}

// Plan is an insurance policy covering some family members.
type Plan struct {
	ID             string
	FamilyID       string
	Provider       string
	PlanName       string
	PolicyNumber   string
	GroupNumber    string
	MemberID       string
	CoverageType   string
	PrimaryHolder  string
	PhoneNumber    string
	Website        string
	EffectiveDate  *time.Time
	ExpirationDate *time.Time
	CoveredMembers []string
	Notes          string
	CreatedBy      string
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the plan's expiration date is before now.
func (p Plan) Expired(now time.Time) bool {
	return p.ExpirationDate != nil && p.ExpirationDate.Before(now)
}

// Document is a file attached to a plan, such as a card scan or an EOB.
type Document struct {
	ID             string
	FamilyID       string
	PlanID         string
	MemberID       string
	Name           string
	Description    string
	DocumentType   string
	ExpirationDate *time.Time
	FileName       string
	FileType       string
	FileSize       int64
	StorageKey     string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
