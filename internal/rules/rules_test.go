package rules

import (
	"strings"
	"testing"
	"time"

	"gatherly/internal/domain"

	"github.com/stretchr/testify/require"
)

func validEvent() *domain.Event {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Event{
		ID:          "ev-1",
		OrganizerID: "user-1",
		Title:       "Tech Conference 2025",
		Description: "Annual tech conference for everyone",
		StartsAt:    created.Add(30 * 24 * time.Hour),
		Location:    "Convention Center",
		City:        "Karachi",
		Category:    "tech",
		Status:      domain.EventStatusActive,
		CreatedAt:   created,
	}
}

func TestValidateEvent(t *testing.T) {
	capZero := 0
	capOK := 500
	capHuge := 2_000_000

	tests := []struct {
		name      string
		mutate    func(e *domain.Event)
		wantField string
	}{
		{"valid", func(e *domain.Event) {}, ""},
		{"title too short", func(e *domain.Event) { e.Title = "ab" }, "title"},
		{"title too long", func(e *domain.Event) { e.Title = strings.Repeat("x", 201) }, "title"},
		{"description too short", func(e *domain.Event) { e.Description = "short" }, "description"},
		{"location too short", func(e *domain.Event) { e.Location = "ab" }, "location"},
		{"missing city", func(e *domain.Event) { e.City = "  " }, "city"},
		{"unknown category", func(e *domain.Event) { e.Category = "underwater" }, "category"},
		{"unknown status", func(e *domain.Event) { e.Status = "paused" }, "status"},
		{"zero capacity", func(e *domain.Event) { e.Capacity = &capZero }, "capacity"},
		{"capacity too large", func(e *domain.Event) { e.Capacity = &capHuge }, "capacity"},
		{"valid capacity", func(e *domain.Event) { e.Capacity = &capOK }, ""},
		{"starts before created", func(e *domain.Event) { e.StartsAt = e.CreatedAt.Add(-time.Hour) }, "datetime"},
		{"starts at created", func(e *domain.Event) { e.StartsAt = e.CreatedAt }, "datetime"},
		{"ends before start", func(e *domain.Event) {
			end := e.StartsAt.Add(-time.Minute)
			e.EndsAt = &end
		}, "end_datetime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(e)
			err := ValidateEvent(e)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateGroup(t *testing.T) {
	tests := []struct {
		name    string
		group   *domain.Group
		wantErr bool
	}{
		{"two char name fails", &domain.Group{Name: "ab"}, true},
		{"three char name passes", &domain.Group{Name: "abc"}, false},
		{"name too long", &domain.Group{Name: strings.Repeat("x", 101)}, true},
		{"description too long", &domain.Group{Name: "Run Club", Description: strPtr(strings.Repeat("x", 1001))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroup(tt.group)
			if tt.wantErr {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateMessageContent(t *testing.T) {
	require.Error(t, ValidateMessageContent(""))
	require.NoError(t, ValidateMessageContent("h"))
	require.NoError(t, ValidateMessageContent(strings.Repeat("x", 2000)))
	require.Error(t, ValidateMessageContent(strings.Repeat("x", 2001)))

	// Bounds count characters, not bytes: 1500 two-byte runes pass.
	require.NoError(t, ValidateMessageContent(strings.Repeat("é", 1500)))
	require.Error(t, ValidateMessageContent(strings.Repeat("é", 2001)))
}

func TestBoundsCountRunes(t *testing.T) {
	// 150 two-byte runes is 300 bytes but only 150 characters.
	e := validEvent()
	e.Title = strings.Repeat("é", 150)
	require.NoError(t, ValidateEvent(e))

	require.NoError(t, ValidateGroup(&domain.Group{Name: strings.Repeat("é", 100)}))
	require.Error(t, ValidateGroup(&domain.Group{Name: strings.Repeat("é", 101)}))

	p := &domain.Profile{ID: "u-1", Email: "a@b.com", Name: strings.Repeat("é", 100), Role: domain.RoleAttendee}
	require.NoError(t, ValidateProfile(p))
}

func TestValidateProfile(t *testing.T) {
	p := &domain.Profile{ID: "u-1", Email: "a@b.com", Name: "Jo", Role: domain.RoleAttendee}
	require.NoError(t, ValidateProfile(p))

	p.Name = "J"
	require.Error(t, ValidateProfile(p))

	p.Name = "Jo"
	p.Role = "superuser"
	require.Error(t, ValidateProfile(p))

	p.Role = domain.RoleOrganizer
	p.Email = ""
	require.Error(t, ValidateProfile(p))
}

func TestValidateGroupMember(t *testing.T) {
	require.NoError(t, ValidateGroupMember(&domain.GroupMember{Role: domain.GroupRoleAdmin}))
	require.NoError(t, ValidateGroupMember(&domain.GroupMember{Role: domain.GroupRoleMember}))
	require.Error(t, ValidateGroupMember(&domain.GroupMember{Role: "owner"}))
}

func strPtr(s string) *string { return &s }
