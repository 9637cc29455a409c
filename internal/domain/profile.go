package domain

import "time"

// Profile represents the resume and free-form details of a user
type Profile struct {
	UserID            string    `json:"user_id" db:"user_id"`
	ResumeText        string    `json:"resume_text" db:"resume_text"`
	AdditionalDetails string    `json:"additional_details" db:"additional_details"`
	ProfileCompleted  bool      `json:"profile_completed" db:"profile_completed"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
