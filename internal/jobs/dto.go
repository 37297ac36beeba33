package jobs

// CreateRequest is the POST /jobs payload. The file must already be uploaded
// through the files endpoint; the job references it by key.
type CreateRequest struct {
	JobType   string `json:"jobType" binding:"required"`
	FileName  string `json:"fileName" binding:"required"`
	FileKey   string `json:"fileKey" binding:"required"`
	FileURL   string `json:"fileUrl"`
	MimeType  string `json:"mimeType"`
	FileSize  int64  `json:"fileSize"`
	UserQuery string `json:"userQuery"`
}

// QueryRequest is the POST /jobs/:id/query payload.
type QueryRequest struct {
	UserQuery string `json:"userQuery" binding:"required"`
}

// QueryResponse is the POST /jobs/:id/query reply.
type QueryResponse struct {
	Success            bool   `json:"success"`
	CustomInstructions string `json:"customInstructions"`
}

// ListResponse wraps a job page.
type ListResponse struct {
	Jobs   []Job `json:"jobs"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
