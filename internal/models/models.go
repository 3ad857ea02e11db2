package models

import "time"

// BookRef is the book a card is (or will be) attached to. Before
// resolution only the descriptive fields are set; resolution fills in
// MemberBookID and the ref becomes usable for persistence.
type BookRef struct {
	MemberBookID int64  `json:"memberBookId,omitempty"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Publisher    string `json:"publisher,omitempty"`
	ISBN         string `json:"isbn,omitempty"`
}

// Resolved reports whether the ref points at a concrete catalog entry.
func (r BookRef) Resolved() bool {
	return r.MemberBookID != 0
}

// UploadTicket authorizes one direct binary write to object storage.
// PublicURL is the durable address of the object after the push.
type UploadTicket struct {
	PresignedURL string `json:"presignedUrl"`
	PublicURL    string `json:"publicUrl"`
}

// ReadingCard is the persisted result of one completed workflow run.
type ReadingCard struct {
	CardID       int64     `json:"cardId"`
	MemberBookID int64     `json:"memberBookId"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"imageUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}
