package medicaldocs

import "time"

// DefaultCategoryColor is applied to categories created without a color.
const DefaultCategoryColor = "#3B82F6"

// Document is a medical record file with searchable metadata.
type Document struct {
	ID             string
	FamilyID       string
	CreatedBy      string
	Title          string
	Description    string
	PatientID      string
	Category       string
	Date           time.Time
	ExpirationDate *time.Time
	FileName       string
	FileType       string
	FileSize       int64
	StorageKey     string
	ExtractedText  string
	Tags           []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasFile reports whether a stored file backs the document.
func (d Document) HasFile() bool {
	return d.StorageKey != ""
}

// Category groups documents for filtering.
type Category struct {
	ID          string
	FamilyID    string
	Name        string
	Description string
	Color       string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter narrows a document listing. Empty or "all" values match everything.
type Filter struct {
	Category  string
	PatientID string
	Search    string
}

func (f Filter) category() string {
	return normalizeFilterValue(f.Category)
}

func (f Filter) patientID() string {
	return normalizeFilterValue(f.PatientID)
}

func normalizeFilterValue(v string) string {
	if v == "all" {
		return ""
	}
	return v
}
