package jobs

import "time"

// Type identifies what kind of file a job converts.
type Type string

const (
	TypeAudio    Type = "audio"
	TypeDocument Type = "document"
	TypeSlide    Type = "slide"
)

// ParseType validates a raw job type string.
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeAudio, TypeDocument, TypeSlide:
		return Type(raw), true
	default:
		return "", false
	}
}

// Status is the lifecycle state of a job. Transitions are forward only:
// pending -> processing -> completed or failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether a status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one file conversion request and its outcome.
type Job struct {
	ID                 int64      `json:"id"`
	UserID             string     `json:"userId"`
	JobType            Type       `json:"jobType"`
	Status             Status     `json:"status"`
	OriginalFileName   string     `json:"originalFileName"`
	OriginalFileURL    string     `json:"originalFileUrl,omitempty"`
	OriginalFileKey    string     `json:"-"`
	MimeType           string     `json:"mimeType,omitempty"`
	FileSize           int64      `json:"fileSize,omitempty"`
	JSONLURL           string     `json:"jsonlUrl,omitempty"`
	JSONLFileKey       string     `json:"-"`
	ErrorMessage       string     `json:"errorMessage,omitempty"`
	UserQuery          string     `json:"userQuery,omitempty"`
	CustomInstructions string     `json:"customInstructions,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}
