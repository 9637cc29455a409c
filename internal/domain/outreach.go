package domain

import (
	"strings"
	"time"
)

// Experience is one position in a candidate's employment history
type Experience struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one entry in a candidate's education history
type Education struct {
	School       string `json:"school"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
}

// Candidate is a person returned by people search. Experience is ordered most recent first.
type Candidate struct {
	Name              string       `json:"name"`
	Title             string       `json:"title,omitempty"`
	Headline          string       `json:"headline,omitempty"`
	Location          string       `json:"location,omitempty"`
	ProfileURL        string       `json:"linkedin_url"`
	ProfilePictureURL string       `json:"profile_picture_url,omitempty"`
	Experience        []Experience `json:"experience,omitempty"`
	Education         []Education  `json:"education,omitempty"`
}

// MostRecentEmployer returns the first non-empty company name in the history.
func (c *Candidate) MostRecentEmployer() string {
	for _, e := range c.Experience {
		if name := strings.TrimSpace(e.CompanyName); name != "" {
			return name
		}
	}
	return ""
}

// OutreachMessage is a drafted email for one candidate
type OutreachMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OutreachDetail is a successfully contacted candidate
type OutreachDetail struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Profile   string `json:"profile_url"`
	MessageID string `json:"message_id"`
}

// OutreachFailure is a candidate the pipeline could not contact
type OutreachFailure struct {
	Name    string `json:"name"`
	Profile string `json:"profile_url,omitempty"`
	Stage   string `json:"stage"`
	Error   string `json:"error"`
}

// OutreachResult is the aggregate of one pipeline run
type OutreachResult struct {
	RunID               string            `json:"run_id"`
	SearchQuery         string            `json:"search_query"`
	CandidatesContacted int               `json:"candidates_contacted"`
	Details             []OutreachDetail  `json:"details"`
	Failures            []OutreachFailure `json:"failures,omitempty"`
}

// Outreach log statuses
const (
	OutreachStatusSent   = "sent"
	OutreachStatusFailed = "failed"
)

// OutreachLogEntry records the outcome for one candidate of a pipeline run
type OutreachLogEntry struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	RunID         string    `json:"run_id" db:"run_id"`
	CandidateName string    `json:"candidate_name" db:"candidate_name"`
	ProfileURL    string    `json:"profile_url" db:"profile_url"`
	Email         string    `json:"email" db:"email"`
	Subject       string    `json:"subject" db:"subject"`
	Status        string    `json:"status" db:"status"`
	Stage         string    `json:"stage,omitempty" db:"stage"`
	Error         string    `json:"error,omitempty" db:"error"`
	MessageID     string    `json:"message_id,omitempty" db:"message_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// MailSummary is one message of a mailbox conversation
type MailSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Cc      string `json:"cc,omitempty"`
	Bcc     string `json:"bcc,omitempty"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// WebResult is one web search hit
type WebResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Connection request outcomes reported by browser automation
const (
	ConnectionSuccess = "success"
	ConnectionSkip    = "skip"
	ConnectionError   = "error"
)

// ConnectionOutcome is the classified result for one profile link
type ConnectionOutcome struct {
	ProfileURL string `json:"profile_url"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
}

// ConnectionReport summarises a browser automation batch
type ConnectionReport struct {
	Query    string              `json:"query"`
	Outcomes []ConnectionOutcome `json:"outcomes"`
	Success  int                 `json:"success"`
	Skipped  int                 `json:"skipped"`
	Errors   int                 `json:"errors"`
}
