package dto

// SaveProfileRequest represents a profile save request
type SaveProfileRequest struct {
	ResumeText        string `json:"resume_text" binding:"required"`
	AdditionalDetails string `json:"additional_details"`
}

// SendEmailRequest represents a single email send request
type SendEmailRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// OutreachRequest starts an outreach pipeline run
type OutreachRequest struct {
	JobDescription string `json:"job_description" binding:"required"`
}

// WebSearchRequest represents a web search request
type WebSearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// PeopleSearchRequest represents a people search request
type PeopleSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit" binding:"omitempty,min=1,max=30"`
}

// ConnectionRequest asks for connection requests to people matching a query
type ConnectionRequest struct {
	Query   string `json:"query" binding:"required"`
	Message string `json:"message" binding:"required,max=300"`
}
