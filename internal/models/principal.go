package models

import "strings"

// Principal is the authenticated caller behind a request
type Principal struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission checks if the caller holds a permission.
// Supports wildcard permissions like "skills:*" and "*".
func (p *Principal) HasPermission(required string) bool {
	if p == nil || p.UserID == "" {
		return false
	}

	for _, perm := range p.Permissions {
		if perm == required || perm == "*" {
			return true
		}

		// "skills:*" matches "skills:write"
		if strings.HasSuffix(perm, ":*") {
			prefix := strings.TrimSuffix(perm, "*")
			if strings.HasPrefix(required, prefix) {
				return true
			}
		}
	}

	return false
}

// MaskedUserID returns first 8 characters of the user id for logging
func (p *Principal) MaskedUserID() string {
	if len(p.UserID) < 8 {
		return "***"
	}
	return p.UserID[:8] + "..."
}
