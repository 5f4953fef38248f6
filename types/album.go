package types

import "time"

// Album represents a named grouping of gallery images. Membership is
// optional: an image belongs to zero or one album.
type Album struct {
	// ID is the unique identifier of the album.
	ID string `json:"id" db:"id"`

	// Name is the required display name of the album.
	Name string `json:"name" db:"name"`

	// Description is an optional free-form description.
	Description *string `json:"description" db:"description"`

	// CoverURL is an optional public URL of the album cover image.
	CoverURL *string `json:"coverUrl" db:"cover_url"`

	// CreatedAt is the timestamp when the album was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the album.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Images holds the member images for full listings. Omitted in
	// summary mode.
	Images []Image `json:"images,omitempty"`

	// Count carries the member image count for summary listings.
	Count *AlbumCount `json:"_count,omitempty"`
}

// AlbumCount holds counts of records related to an album.
type AlbumCount struct {
	// Images is the number of images in the album.
	Images int `json:"images"`
}

// AlbumUpdate describes a partial update to an album. Nil fields are
// left unchanged; the Clear flags null out their nullable columns.
type AlbumUpdate struct {
	Name             *string
	Description      *string
	ClearDescription bool
	CoverURL         *string
	ClearCover       bool
}
