package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gatherly/internal/domain"
)

// fakeStore is a shared in-memory backing for the fake repositories. It
// mimics the storage contracts the services rely on: unique constraints
// surface as ConflictError, dangling references as ReferentialError, and
// cascades remove dependents together with their owner.
type fakeStore struct {
	profiles map[string]*domain.Profile
	events   map[string]*domain.Event
	rsvps    map[string]*domain.RSVP
	groups   map[string]*domain.Group
	members  map[string]*domain.GroupMember
	messages map[string]*domain.Message
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]*domain.Profile),
		events:   make(map[string]*domain.Event),
		rsvps:    make(map[string]*domain.RSVP),
		groups:   make(map[string]*domain.Group),
		members:  make(map[string]*domain.GroupMember),
		messages: make(map[string]*domain.Message),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) addProfile(id string, role domain.ProfileRole) *domain.Profile {
	p := &domain.Profile{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "User " + id,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.profiles[id] = p
	return p
}

// --- profile repository ---

type fakeProfileRepo struct{ *fakeStore }

func (f *fakeProfileRepo) CreateIfAbsent(_ context.Context, p *domain.Profile) (bool, error) {
	if _, ok := f.profiles[p.ID]; ok {
		return false, nil
	}
	for _, other := range f.profiles {
		if other.Email == p.Email {
			return false, &domain.ConflictError{Constraint: "profiles_email_key"}
		}
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return true, nil
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileRepo) Update(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Bio != nil {
		p.Bio = upd.Bio
	}
	if upd.Location != nil {
		p.Location = upd.Location
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = upd.AvatarURL
	}
	p.UpdatedAt = time.Now()
	return p, nil
}

func (f *fakeProfileRepo) UpdateRole(_ context.Context, id string, role domain.ProfileRole) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Role = role
	p.UpdatedAt = time.Now()
	return p, nil
}

func (f *fakeProfileRepo) DeleteCascade(_ context.Context, id string) error {
	if _, ok := f.profiles[id]; !ok {
		return domain.ErrNotFound
	}
	ownedGroups := make(map[string]bool)
	for gid, g := range f.groups {
		if g.CreatorID == id {
			ownedGroups[gid] = true
		}
	}
	ownedEvents := make(map[string]bool)
	for eid, e := range f.events {
		if e.OrganizerID == id {
			ownedEvents[eid] = true
		}
	}
	for mid, m := range f.messages {
		if m.UserID == id || ownedGroups[m.GroupID] {
			delete(f.messages, mid)
		}
	}
	for mid, m := range f.members {
		if m.UserID == id || ownedGroups[m.GroupID] {
			delete(f.members, mid)
		}
	}
	for rid, r := range f.rsvps {
		if r.UserID == id || ownedEvents[r.EventID] {
			delete(f.rsvps, rid)
		}
	}
	for gid := range ownedGroups {
		delete(f.groups, gid)
	}
	for eid := range ownedEvents {
		delete(f.events, eid)
	}
	delete(f.profiles, id)
	return nil
}

// --- event repository ---

type fakeEventRepo struct{ *fakeStore }

func (f *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	if _, ok := f.profiles[e.OrganizerID]; !ok {
		return &domain.ReferentialError{Reference: "events_organizer_id_fkey"}
	}
	if e.ID == "" {
		e.ID = f.nextID("ev")
	}
	f.events[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(_ context.Context, viewer domain.Principal, filter domain.EventFilter) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0)
	for _, e := range f.events {
		if e.Status != domain.EventStatusActive && !viewer.Is(e.OrganizerID) {
			continue
		}
		if !filter.After.IsZero() && e.StartsAt.Before(filter.After) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeEventRepo) ListByOrganizerID(_ context.Context, organizerID string) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0)
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListTrending(_ context.Context, after time.Time, limit int) ([]*domain.EventWithStats, error) {
	stats, _ := f.ListWithStats(context.Background(), domain.Anonymous(), domain.EventFilter{After: after})
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].IsTrending != stats[j].IsTrending {
			return stats[i].IsTrending
		}
		return stats[i].RSVPCount > stats[j].RSVPCount
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (f *fakeEventRepo) Update(_ context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.StartsAt != nil {
		e.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		e.EndsAt = upd.EndsAt
	}
	if upd.Location != nil {
		e.Location = *upd.Location
	}
	if upd.City != nil {
		e.City = *upd.City
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Capacity != nil {
		e.Capacity = upd.Capacity
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	e.UpdatedAt = time.Now()
	return e, nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	for rid, r := range f.rsvps {
		if r.EventID == id {
			delete(f.rsvps, rid)
		}
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) ListWithStats(_ context.Context, viewer domain.Principal, filter domain.EventFilter) ([]*domain.EventWithStats, error) {
	events, _ := f.List(context.Background(), viewer, filter)
	out := make([]*domain.EventWithStats, 0, len(events))
	for _, e := range events {
		count := 0
		for _, r := range f.rsvps {
			if r.EventID == e.ID {
				count++
			}
		}
		s := &domain.EventWithStats{Event: *e, RSVPCount: count}
		if p, ok := f.profiles[e.OrganizerID]; ok {
			s.OrganizerName = p.Name
			s.OrganizerEmail = p.Email
		}
		out = append(out, s)
	}
	return out, nil
}

// --- rsvp repository ---

type fakeRSVPRepo struct{ *fakeStore }

func (f *fakeRSVPRepo) Create(_ context.Context, r *domain.RSVP) error {
	event, ok := f.events[r.EventID]
	if !ok {
		return &domain.ReferentialError{Reference: "event does not exist"}
	}
	if event.Status != domain.EventStatusActive {
		return domain.NewValidationError("event", "cannot rsvp to an inactive event")
	}
	if event.Capacity != nil {
		count := 0
		for _, other := range f.rsvps {
			if other.EventID == r.EventID {
				count++
			}
		}
		if count >= *event.Capacity {
			return domain.NewValidationError("event", "event is at full capacity")
		}
	}
	if _, ok := f.profiles[r.UserID]; !ok {
		return &domain.ReferentialError{Reference: "rsvps_user_id_fkey"}
	}
	for _, other := range f.rsvps {
		if other.EventID == r.EventID && other.UserID == r.UserID {
			return &domain.ConflictError{Constraint: "rsvps_event_id_user_id_key"}
		}
	}
	if r.ID == "" {
		r.ID = f.nextID("rsvp")
	}
	f.rsvps[r.ID] = r
	return nil
}

func (f *fakeRSVPRepo) Delete(_ context.Context, eventID, userID string) error {
	for id, r := range f.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			delete(f.rsvps, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRSVPRepo) ListByUserID(_ context.Context, userID string) ([]*domain.RSVP, error) {
	out := make([]*domain.RSVP, 0)
	for _, r := range f.rsvps {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRSVPRepo) CountByEventID(_ context.Context, eventID string) (int, error) {
	count := 0
	for _, r := range f.rsvps {
		if r.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRSVPRepo) Exists(_ context.Context, eventID, userID string) (bool, error) {
	for _, r := range f.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// --- group repository ---

type fakeGroupRepo struct{ *fakeStore }

func (f *fakeGroupRepo) Create(_ context.Context, g *domain.Group) error {
	if _, ok := f.profiles[g.CreatorID]; !ok {
		return &domain.ReferentialError{Reference: "groups_creator_id_fkey"}
	}
	if g.ID == "" {
		g.ID = f.nextID("grp")
	}
	f.groups[g.ID] = g
	// Provisioned admin membership, same atomic unit as the insert.
	m := &domain.GroupMember{
		ID:       f.nextID("mem"),
		GroupID:  g.ID,
		UserID:   g.CreatorID,
		Role:     domain.GroupRoleAdmin,
		JoinedAt: g.CreatedAt,
	}
	f.members[m.ID] = m
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id string) (*domain.Group, error) {
	if g, ok := f.groups[id]; ok {
		return g, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGroupRepo) List(_ context.Context, viewer domain.Principal, filter domain.GroupFilter) ([]*domain.Group, error) {
	out := make([]*domain.Group, 0)
	for _, g := range f.groups {
		if !g.IsPublic && !viewer.Is(g.CreatorID) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGroupRepo) ListByMemberID(_ context.Context, userID string) ([]*domain.Group, error) {
	out := make([]*domain.Group, 0)
	for _, m := range f.members {
		if m.UserID == userID {
			if g, ok := f.groups[m.GroupID]; ok {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) Update(_ context.Context, id string, upd domain.GroupUpdate) (*domain.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		g.Name = *upd.Name
	}
	if upd.Description != nil {
		g.Description = upd.Description
	}
	if upd.Category != nil {
		g.Category = upd.Category
	}
	if upd.AvatarURL != nil {
		g.AvatarURL = upd.AvatarURL
	}
	if upd.IsPublic != nil {
		g.IsPublic = *upd.IsPublic
	}
	g.UpdatedAt = time.Now()
	return g, nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.groups[id]; !ok {
		return domain.ErrNotFound
	}
	for mid, m := range f.messages {
		if m.GroupID == id {
			delete(f.messages, mid)
		}
	}
	for mid, m := range f.members {
		if m.GroupID == id {
			delete(f.members, mid)
		}
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeGroupRepo) ListWithStats(_ context.Context, viewer domain.Principal, filter domain.GroupFilter) ([]*domain.GroupWithStats, error) {
	groups, _ := f.List(context.Background(), viewer, filter)
	out := make([]*domain.GroupWithStats, 0, len(groups))
	for _, g := range groups {
		count := 0
		for _, m := range f.members {
			if m.GroupID == g.ID {
				count++
			}
		}
		s := &domain.GroupWithStats{Group: *g, MemberCount: count}
		if p, ok := f.profiles[g.CreatorID]; ok {
			s.CreatorName = p.Name
		}
		out = append(out, s)
	}
	return out, nil
}

// --- group member repository (also the policy RoleResolver) ---

type fakeMemberRepo struct{ *fakeStore }

func (f *fakeMemberRepo) Add(_ context.Context, m *domain.GroupMember) error {
	if _, ok := f.groups[m.GroupID]; !ok {
		return &domain.ReferentialError{Reference: "group_members_group_id_fkey"}
	}
	if _, ok := f.profiles[m.UserID]; !ok {
		return &domain.ReferentialError{Reference: "group_members_user_id_fkey"}
	}
	for _, other := range f.members {
		if other.GroupID == m.GroupID && other.UserID == m.UserID {
			return &domain.ConflictError{Constraint: "group_members_group_id_user_id_key"}
		}
	}
	if m.ID == "" {
		m.ID = f.nextID("mem")
	}
	f.members[m.ID] = m
	return nil
}

func (f *fakeMemberRepo) Remove(_ context.Context, groupID, userID string) error {
	for id, m := range f.members {
		if m.GroupID == groupID && m.UserID == userID {
			if m.Role == domain.GroupRoleAdmin {
				admins := 0
				for _, other := range f.members {
					if other.GroupID == groupID && other.Role == domain.GroupRoleAdmin {
						admins++
					}
				}
				if admins == 1 {
					return domain.NewValidationError("membership", "cannot remove the only admin")
				}
			}
			delete(f.members, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeMemberRepo) GetRole(_ context.Context, groupID, userID string) (domain.GroupRole, error) {
	for _, m := range f.members {
		if m.GroupID == groupID && m.UserID == userID {
			return m.Role, nil
		}
	}
	return "", domain.ErrNotFound
}

func (f *fakeMemberRepo) ListByGroupID(_ context.Context, groupID string) ([]*domain.GroupMemberInfo, error) {
	out := make([]*domain.GroupMemberInfo, 0)
	for _, m := range f.members {
		if m.GroupID != groupID {
			continue
		}
		info := &domain.GroupMemberInfo{GroupMember: *m}
		if p, ok := f.profiles[m.UserID]; ok {
			info.Name = p.Name
			info.Email = p.Email
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeMemberRepo) CountByGroupID(_ context.Context, groupID string) (int, error) {
	count := 0
	for _, m := range f.members {
		if m.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMemberRepo) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	for _, m := range f.members {
		if m.GroupID == groupID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberRepo) IsAdmin(_ context.Context, groupID, userID string) (bool, error) {
	for _, m := range f.members {
		if m.GroupID == groupID && m.UserID == userID {
			return m.Role == domain.GroupRoleAdmin, nil
		}
	}
	return false, nil
}

// --- message repository ---

type fakeMessageRepo struct{ *fakeStore }

func (f *fakeMessageRepo) Create(_ context.Context, m *domain.Message) error {
	if _, ok := f.groups[m.GroupID]; !ok {
		return &domain.ReferentialError{Reference: "messages_group_id_fkey"}
	}
	if _, ok := f.profiles[m.UserID]; !ok {
		return &domain.ReferentialError{Reference: "messages_user_id_fkey"}
	}
	member := false
	for _, gm := range f.members {
		if gm.GroupID == m.GroupID && gm.UserID == m.UserID {
			member = true
			break
		}
	}
	if !member {
		return &domain.AuthorizationError{Entity: "message", Operation: "insert"}
	}
	if m.ID == "" {
		m.ID = f.nextID("msg")
	}
	f.messages[m.ID] = m
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMessageRepo) ListByGroupID(_ context.Context, groupID string, params domain.HistoryParams) ([]*domain.Message, error) {
	params = params.Normalize()
	out := make([]*domain.Message, 0)
	var before *time.Time
	if params.BeforeID != "" {
		if m, ok := f.messages[params.BeforeID]; ok {
			before = &m.CreatedAt
		}
	}
	for _, m := range f.messages {
		if m.GroupID != groupID || m.IsDeleted {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > params.Limit {
		out = out[len(out)-params.Limit:]
	}
	return out, nil
}

func (f *fakeMessageRepo) SoftDelete(_ context.Context, id string) error {
	m, ok := f.messages[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.IsDeleted = true
	return nil
}
