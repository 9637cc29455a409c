// Package mcp exposes the outreach operations as Model Context Protocol tools.
package mcp

import "errors"

var (
	// ErrMissingProfileService is returned when the profile service is not provided.
	ErrMissingProfileService = errors.New("mcp: profile service is required")
	// ErrMissingMailService is returned when the mail service is not provided.
	ErrMissingMailService = errors.New("mcp: mail service is required")
	// ErrMissingOutreachService is returned when the outreach service is not provided.
	ErrMissingOutreachService = errors.New("mcp: outreach service is required")
	// ErrMissingAuthService is returned when the auth service is not provided.
	ErrMissingAuthService = errors.New("mcp: auth service is required")
)
