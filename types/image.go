package types

import "time"

// Image represents a stored gallery picture. The object store holds the
// binary bytes; this record is the metadata and the public URL.
type Image struct {
	// ID is the unique identifier of the image.
	ID string `json:"id" db:"id"`

	// AlbumID references the containing album, or nil when the image
	// is unfiled.
	AlbumID *string `json:"albumId" db:"album_id"`

	// URL is the public URL of the image.
	URL string `json:"url" db:"url"`

	// Path is the key addressing the binary object in the object store.
	Path string `json:"path" db:"path"`

	// Filename is the original upload filename.
	Filename string `json:"filename" db:"filename"`

	// Size is the object size in bytes, when known.
	Size *int64 `json:"size" db:"size"`

	// MimeType is the content type of the object, when known.
	MimeType *string `json:"mimeType" db:"mime_type"`

	// CreatedAt is the timestamp when the image was uploaded.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// DashboardStats aggregates job counts for the dashboard summary cards.
type DashboardStats struct {
	TotalJobs     int `json:"totalJobs"`
	PublishedJobs int `json:"publishedJobs"`
	DraftJobs     int `json:"draftJobs"`
	ClosedJobs    int `json:"closedJobs"`
}
