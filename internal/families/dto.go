package families

import "time"

// FamilyResponse is the outward-facing representation of a family.
type FamilyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MemberResponse is the outward-facing representation of a member.
type MemberResponse struct {
	ID           string     `json:"id"`
	FamilyID     string     `json:"familyId"`
	Name         string     `json:"name"`
	Relationship string     `json:"relationship,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	Name         string     `json:"name"`
	Relationship string     `json:"relationship"`
	BirthDate    *time.Time `json:"birthDate"`
}

func toFamilyResponse(f Family) FamilyResponse {
	return FamilyResponse{
		ID:        f.ID,
		Name:      f.Name,
		OwnerID:   f.OwnerID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func toMemberResponse(m Member) MemberResponse {
	return MemberResponse{
		ID:           m.ID,
		FamilyID:     m.FamilyID,
		Name:         m.Name,
		Relationship: m.Relationship,
		BirthDate:    m.BirthDate,
		CreatedAt:    m.CreatedAt,
	}
}
