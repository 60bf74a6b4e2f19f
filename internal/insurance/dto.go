package insurance

import (
	"errors"
	"time"

	"allie-backend/internal/shared/util"
)

// PlanResponse is the outward-facing representation of a plan.
type PlanResponse struct {
	ID             string     `json:"id"`
	Provider       string     `json:"provider"`
	PlanName       string     `json:"planName"`
	PolicyNumber   string     `json:"policyNumber"`
	GroupNumber    string     `json:"groupNumber"`
	MemberID       string     `json:"memberId"`
	CoverageType   string     `json:"coverageType"`
	PrimaryHolder  string     `json:"primaryHolder"`
	PhoneNumber    string     `json:"phoneNumber"`
	Website        string     `json:"website"`
	EffectiveDate  *time.Time `json:"effectiveDate,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	Expired        bool       `json:"expired"`
	CoveredMembers []string   `json:"coveredMembers"`
	Notes          string     `json:"notes"`
	CreatedBy      string     `json:"createdBy"`
	UpdatedBy      string     `json:"updatedBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DocumentResponse is the outward-facing representation of a plan document.
type DocumentResponse struct {
	ID             string     `json:"id"`
	PlanID         string     `json:"planId"`
	MemberID       string     `json:"memberId"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	DocumentType   string     `json:"documentType"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	FileName       string     `json:"fileName"`
	FileType       string     `json:"fileType"`
	FileSize       int64      `json:"fileSize"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type planRequest struct {
	Provider       *string   `json:"provider"`
	PlanName       *string   `json:"planName"`
	PolicyNumber   *string   `json:"policyNumber"`
	GroupNumber    *string   `json:"groupNumber"`
	MemberID       *string   `json:"memberId"`
	CoverageType   *string   `json:"coverageType"`
	PrimaryHolder  *string   `json:"primaryHolder"`
	PhoneNumber    *string   `json:"phoneNumber"`
	Website        *string   `json:"website"`
	EffectiveDate  *string   `json:"effectiveDate"`
	ExpirationDate *string   `json:"expirationDate"`
	CoveredMembers *[]string `json:"coveredMembers"`
	Notes          *string   `json:"notes"`
}

type documentRequest struct {
	MemberID       string `json:"memberId" form:"memberId"`
	Name           string `json:"name" form:"name"`
	Description    string `json:"description" form:"description"`
	DocumentType   string `json:"documentType" form:"documentType"`
	ExpirationDate string `json:"expirationDate" form:"expirationDate"`
}

func (r planRequest) toInput(loc *time.Location) (PlanInput, error) {
	in := PlanInput{
		Provider:       r.Provider,
		PlanName:       r.PlanName,
		PolicyNumber:   r.PolicyNumber,
		GroupNumber:    r.GroupNumber,
		MemberID:       r.MemberID,
		CoverageType:   r.CoverageType,
		PrimaryHolder:  r.PrimaryHolder,
		PhoneNumber:    r.PhoneNumber,
		Website:        r.Website,
		CoveredMembers: r.CoveredMembers,
		Notes:          r.Notes,
	}
	if r.EffectiveDate != nil {
		t, err := util.ParseOptionalDate(*r.EffectiveDate, loc)
		if err != nil {
			return PlanInput{}, errors.New("effectiveDate must be YYYY-MM-DD or RFC 3339")
		}
		in.EffectiveDate = &t
	}
	if r.ExpirationDate != nil {
		t, err := util.ParseOptionalDate(*r.ExpirationDate, loc)
		if err != nil {
			return PlanInput{}, errors.New("expirationDate must be YYYY-MM-DD or RFC 3339")
		}
		in.ExpirationDate = &t
	}
	return in, nil
}

func toPlanResponse(p Plan, now time.Time) PlanResponse {
	covered := p.CoveredMembers
	if covered == nil {
		covered = []string{}
	}
	return PlanResponse{
		ID:             p.ID,
		Provider:       p.Provider,
		PlanName:       p.PlanName,
		PolicyNumber:   p.PolicyNumber,
		GroupNumber:    p.GroupNumber,
		MemberID:       p.MemberID,
		CoverageType:   p.CoverageType,
		PrimaryHolder:  p.PrimaryHolder,
		PhoneNumber:    p.PhoneNumber,
		Website:        p.Website,
		EffectiveDate:  p.EffectiveDate,
		ExpirationDate: p.ExpirationDate,
		Expired:        p.Expired(now),
		CoveredMembers: covered,
		Notes:          p.Notes,
		CreatedBy:      p.CreatedBy,
		UpdatedBy:      p.UpdatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toDocumentResponse(d Document) DocumentResponse {
	return DocumentResponse{
		ID:             d.ID,
		PlanID:         d.PlanID,
		MemberID:       d.MemberID,
		Name:           d.Name,
		Description:    d.Description,
		DocumentType:   d.DocumentType,
		ExpirationDate: d.ExpirationDate,
		FileName:       d.FileName,
		FileType:       d.FileType,
		FileSize:       d.FileSize,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
