// Package rules holds the access-control and integrity layer: field-domain
// validation for every write, and the per-(entity, operation) allow-predicate
// table evaluated for every principal and row.
package rules

import (
	"strings"
	"unicode/utf8"

	"gatherly/internal/domain"
)

// Field bounds. Uniqueness and referential integrity are enforced by the
// storage layer's constraints in the same transaction as the write.
const (
	minProfileName = 2
	maxProfileName = 100

	minEventTitle       = 3
	maxEventTitle       = 200
	minEventDescription = 10
	maxEventDescription = 5000
	minEventLocation    = 3
	maxEventLocation    = 500
	maxEventCapacity    = 1_000_000

	minGroupName        = 3
	maxGroupName        = 100
	maxGroupDescription = 1000

	maxMessageContent = 2000
)

func validCategory(c string) bool {
	for _, v := range domain.EventCategories {
		if c == v {
			return true
		}
	}
	return false
}

func validEventStatus(s domain.EventStatus) bool {
	switch s {
	case domain.EventStatusActive, domain.EventStatusCanceled, domain.EventStatusCompleted:
		return true
	}
	return false
}

func validProfileRole(r domain.ProfileRole) bool {
	return r == domain.RoleAttendee || r == domain.RoleOrganizer
}

func validGroupRole(r domain.GroupRole) bool {
	return r == domain.GroupRoleAdmin || r == domain.GroupRoleMember
}

// ValidateProfile checks the field domains of a profile row.
func ValidateProfile(p *domain.Profile) error {
	if strings.TrimSpace(p.Email) == "" {
		return domain.NewValidationError("email", "is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(p.Name)) < minProfileName {
		return domain.NewValidationError("name", "must be at least 2 characters")
	} else if utf8.RuneCountInString(p.Name) > maxProfileName {
		return domain.NewValidationError("name", "must not exceed 100 characters")
	}
	if !validProfileRole(p.Role) {
		return domain.NewValidationError("role", "must be attendee or organizer")
	}
	return nil
}

// ValidateProfileRole checks a standalone role value.
func ValidateProfileRole(r domain.ProfileRole) error {
	if !validProfileRole(r) {
		return domain.NewValidationError("role", "must be attendee or organizer")
	}
	return nil
}

// ValidateEvent checks the field domains of a complete event row, including
// the datetime > created_at ordering.
func ValidateEvent(e *domain.Event) error {
	if n := utf8.RuneCountInString(e.Title); n < minEventTitle {
		return domain.NewValidationError("title", "must be at least 3 characters")
	} else if n > maxEventTitle {
		return domain.NewValidationError("title", "must not exceed 200 characters")
	}
	if n := utf8.RuneCountInString(e.Description); n < minEventDescription {
		return domain.NewValidationError("description", "must be at least 10 characters")
	} else if n > maxEventDescription {
		return domain.NewValidationError("description", "must not exceed 5000 characters")
	}
	if n := utf8.RuneCountInString(e.Location); n < minEventLocation {
		return domain.NewValidationError("location", "must be at least 3 characters")
	} else if n > maxEventLocation {
		return domain.NewValidationError("location", "must not exceed 500 characters")
	}
	if strings.TrimSpace(e.City) == "" {
		return domain.NewValidationError("city", "is required")
	}
	if !validCategory(e.Category) {
		return domain.NewValidationError("category", "must be one of: "+strings.Join(domain.EventCategories, ", "))
	}
	if !validEventStatus(e.Status) {
		return domain.NewValidationError("status", "must be active, canceled, or completed")
	}
	if err := ValidateCapacity(e.Capacity); err != nil {
		return err
	}
	if !e.StartsAt.After(e.CreatedAt) {
		return domain.NewValidationError("datetime", "must be after creation time")
	}
	if e.EndsAt != nil && !e.EndsAt.After(e.StartsAt) {
		return domain.NewValidationError("end_datetime", "must be after datetime")
	}
	return nil
}

// ValidateCapacity checks a capacity value; nil means unlimited.
func ValidateCapacity(capacity *int) error {
	if capacity == nil {
		return nil
	}
	if *capacity < 1 {
		return domain.NewValidationError("capacity", "must be at least 1")
	}
	if *capacity > maxEventCapacity {
		return domain.NewValidationError("capacity", "must not exceed 1,000,000")
	}
	return nil
}

// ValidateGroup checks the field domains of a group row.
func ValidateGroup(g *domain.Group) error {
	if utf8.RuneCountInString(strings.TrimSpace(g.Name)) < minGroupName {
		return domain.NewValidationError("name", "must be at least 3 characters")
	} else if utf8.RuneCountInString(g.Name) > maxGroupName {
		return domain.NewValidationError("name", "must not exceed 100 characters")
	}
	if g.Description != nil && utf8.RuneCountInString(*g.Description) > maxGroupDescription {
		return domain.NewValidationError("description", "must not exceed 1000 characters")
	}
	return nil
}

// ValidateGroupMember checks the field domains of a membership row.
func ValidateGroupMember(m *domain.GroupMember) error {
	if !validGroupRole(m.Role) {
		return domain.NewValidationError("role", "must be admin or member")
	}
	return nil
}

// ValidateMessageContent checks chat content bounds. Bounds count
// characters, not bytes.
func ValidateMessageContent(content string) error {
	if content == "" {
		return domain.NewValidationError("content", "cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageContent {
		return domain.NewValidationError("content", "must not exceed 2000 characters")
	}
	return nil
}
