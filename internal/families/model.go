package families

import "time"

// Family is a household. Every record in the system is scoped to one.
type Family struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member is a person in the household that records refer to through
// familyMemberId. Members are not login identities.
type Member struct {
	ID           string
	FamilyID     string
	Name         string
	Relationship string
	BirthDate    *time.Time
	CreatedAt    time.Time
}
