package mcp

import (
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// Ports aggregates the services the MCP tools call into.
type Ports struct {
	Profiles service.ProfileService
	Mail     service.MailService
	Outreach service.OutreachService
	Auth     service.AuthService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Profiles == nil:
		return ErrMissingProfileService
	case p.Mail == nil:
		return ErrMissingMailService
	case p.Outreach == nil:
		return ErrMissingOutreachService
	case p.Auth == nil:
		return ErrMissingAuthService
	}
	return nil
}
