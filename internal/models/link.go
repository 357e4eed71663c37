package models

import "time"

// ShortLink represents a shortened URL and its associated metadata.
type ShortLink struct {
	// ID is the unique identifier for the short link record.
	ID int64
	// ShortCode is the 6-character hex code derived from the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// PasswordHash is the bcrypt hash of the link password.
	// Empty when the link is not password protected.
	PasswordHash string
	// AccessCount tracks the number of successful resolutions of the link.
	AccessCount int64
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time
	// ExpiresAt is the timestamp after which the link no longer resolves.
	ExpiresAt time.Time
}

// AccessEvent represents a single successful resolution of a short link.
type AccessEvent struct {
	// ID is the unique identifier for the access event record.
	ID int64
	// LinkID is the identifier of the ShortLink the event belongs to.
	LinkID int64
	// SourceAddr is the network address of the caller at access time.
	SourceAddr string
	// Timestamp indicates when the access happened.
	Timestamp time.Time
}
