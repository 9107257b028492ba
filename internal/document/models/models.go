package models

import "time"

// Document is an office document row. Title and Content of privacy-space
// documents hold encrypted blobs, never plaintext.
type Document struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	OwnerID        int64      `json:"owner_id"`
	FolderID       *int64     `json:"folder_id,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	IsPinned       bool       `json:"is_pinned"`
	InPrivacySpace bool       `json:"in_privacy_space"`
	SyncID         *string    `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ListFilter selects which partition of a user's documents to return.
type ListFilter string

const (
	// FilterActive is the default view: not deleted, not in the privacy space.
	FilterActive ListFilter = "active"
	// FilterRecycleBin returns soft-deleted documents.
	FilterRecycleBin ListFilter = "recycle_bin"
	// FilterPrivacy returns privacy-space documents (still encrypted).
	FilterPrivacy ListFilter = "privacy"
)

// CreateRequest carries a document write from the HTTP layer.
type CreateRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	FolderID        *int64 `json:"folder_id,omitempty"`
	IsPinned        bool   `json:"is_pinned"`
	InPrivacySpace  bool   `json:"in_privacy_space"`
	PrivacyPassword string `json:"_privacy_password,omitempty"`
}

// UpdateRequest carries a document update. Nil fields are left unchanged.
type UpdateRequest struct {
	Title           *string `json:"title,omitempty"`
	Content         *string `json:"content,omitempty"`
	FolderID        *int64  `json:"folder_id,omitempty"`
	IsPinned        *bool   `json:"is_pinned,omitempty"`
	PrivacyPassword string  `json:"_privacy_password,omitempty"`
}

// WriteOutcome distinguishes a committed write from one parked in the
// offline buffer while the primary store is unreachable.
type WriteOutcome string

const (
	OutcomeDirect   WriteOutcome = "direct"
	OutcomeBuffered WriteOutcome = "buffered"
)

// CreateResult reports where a create landed. ID is zero for buffered writes;
// the document gains its row ID when the reconciler drains it.
type CreateResult struct {
	ID      int64        `json:"id,omitempty"`
	Outcome WriteOutcome `json:"outcome"`
}
