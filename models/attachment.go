package models

import "time"

// Attachment represents file metadata associated with a finding. The file
// itself lives in external storage; this record only tracks its shape.
type Attachment struct {
	ID        string    `json:"id" db:"id"`
	FindingID string    `json:"finding_id" db:"finding_id"`
	FileName  string    `json:"file_name" db:"file_name"`
	FilePath  string    `json:"file_path" db:"file_path"`
	FileSize  *int64    `json:"file_size,omitempty" db:"file_size"`
	FileType  string    `json:"file_type,omitempty" db:"file_type"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
