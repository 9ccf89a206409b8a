package domain

import "time"

// Comment captures a message on a complaint thread.
type Comment struct {
	ID          string
	ComplaintID string
	AuthorID    string
	Body        string
	Internal    bool
	CreatedAt   time.Time
}

// Vote records a student supporting a complaint.
type Vote struct {
	ComplaintID string
	UserID      string
	CreatedAt   time.Time
}

// Feedback is the owner's rating of how a complaint was handled.
type Feedback struct {
	ID          string
	ComplaintID string
	StudentID   string
	Rating      int
	Comment     string
	CreatedAt   time.Time
}
