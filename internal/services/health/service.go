package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Status is the payload served by GET /health.
type Status struct {
	OK            bool   `json:"ok"`
	Storage       string `json:"storage"`
	Database      string `json:"database,omitempty"`
	SchemaVersion int64  `json:"schemaVersion,omitempty"`
}

// Service reports whether the API can reach its database. With no database
// configured the API runs on in-memory repositories and is always healthy.
type Service struct {
	DB      *sql.DB
	Version func(ctx context.Context, db *sql.DB) (int64, error)
}

// NewService constructs a health service.
func NewService(db *sql.DB, version func(ctx context.Context, db *sql.DB) (int64, error)) *Service {
	return &Service{DB: db, Version: version}
}

// Status pings the database and reads the schema version.
func (s *Service) Status(ctx context.Context) Status {
	if s.DB == nil {
		return Status{OK: true, Storage: "memory"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.DB.PingContext(ctx); err != nil {
		return Status{OK: false, Storage: "postgres", Database: "unreachable"}
	}
	out := Status{OK: true, Storage: "postgres", Database: "ok"}
	if s.Version != nil {
		if v, err := s.Version(ctx, s.DB); err == nil {
			out.SchemaVersion = v
		}
	}
	return out
}
