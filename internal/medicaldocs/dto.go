package medicaldocs

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID             string     `json:"id"`
	FamilyID       string     `json:"familyId"`
	CreatedBy      string     `json:"createdBy"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	PatientID      string     `json:"patientId"`
	Category       string     `json:"category"`
	Date           time.Time  `json:"date"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	FileName       string     `json:"fileName"`
	FileType       string     `json:"fileType"`
	FileSize       int64      `json:"fileSize"`
	HasFile        bool       `json:"hasFile"`
	Tags           []string   `json:"tags"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CategoryResponse is the outward-facing representation of a category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type documentRequest struct {
	Title          string   `json:"title" form:"title"`
	Description    string   `json:"description" form:"description"`
	PatientID      string   `json:"patientId" form:"patientId"`
	Category       string   `json:"category" form:"category"`
	Date           string   `json:"date" form:"date"`
	ExpirationDate string   `json:"expirationDate" form:"expirationDate"`
	Tags           []string `json:"tags" form:"tags"`
}

type fromUploadRequest struct {
	documentRequest
	S3Key    string `json:"s3Key"`
	FileName string `json:"fileName"`
}

type updateRequest struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	PatientID      *string   `json:"patientId"`
	Category       *string   `json:"category"`
	Date           *string   `json:"date"`
	ExpirationDate *string   `json:"expirationDate"`
	Tags           *[]string `json:"tags"`
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func toResponse(doc Document) DocumentResponse {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentResponse{
		ID:             doc.ID,
		FamilyID:       doc.FamilyID,
		CreatedBy:      doc.CreatedBy,
		Title:          doc.Title,
		Description:    doc.Description,
		PatientID:      doc.PatientID,
		Category:       doc.Category,
		Date:           doc.Date,
		ExpirationDate: doc.ExpirationDate,
		FileName:       doc.FileName,
		FileType:       doc.FileType,
		FileSize:       doc.FileSize,
		HasFile:        doc.HasFile(),
		Tags:           tags,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func toCategoryResponse(c Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
