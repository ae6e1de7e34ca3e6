package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
)

// Memory is a process-local Store. Documents are copied in and out so callers
// never share state with the store.
type Memory struct {
	mu           sync.RWMutex
	users        []models.User
	initiatives  []models.Initiative
	applications []models.VolunteerApplication
	donations    []models.Donation
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users = append(m.users, cloneUser(*u))
	return nil
}

func (m *Memory) userIndex(id primitive.ObjectID) int {
	for i := range m.users {
		if m.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) UserByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.userIndex(id); i >= 0 {
		return cloneUser(m.users[i]), nil
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) UserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) UsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.User{}
	for _, id := range ids {
		if i := m.userIndex(id); i >= 0 {
			out = append(out, cloneUser(m.users[i]))
		}
	}
	return out, nil
}

func (m *Memory) ListUsers(_ context.Context, f UserFilter, p Page) ([]models.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(f.Search)
	matched := []models.User{}
	for i := len(m.users) - 1; i >= 0; i-- {
		u := m.users[i]
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		u = cloneUser(u)
		u.Password, u.ResetOTP, u.ResetOTPExp = "", "", time.Time{}
		matched = append(matched, u)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].JoinedAt.After(matched[j].JoinedAt) })
	return paginate(matched, p), int64(len(matched)), nil
}

func (m *Memory) updateUser(id primitive.ObjectID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.userIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	fn(&m.users[i])
	return nil
}

func (m *Memory) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return m.updateUser(id, func(u *models.User) { u.LastLogin = &at })
}

func (m *Memory) SetRole(_ context.Context, id primitive.ObjectID, role string) error {
	return m.updateUser(id, func(u *models.User) { u.Role = role })
}

func (m *Memory) SetResetOTP(_ context.Context, id primitive.ObjectID, otpHash string, exp time.Time) error {
	return m.updateUser(id, func(u *models.User) { u.ResetOTP, u.ResetOTPExp = otpHash, exp })
}

func (m *Memory) ResetPassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	return m.updateUser(id, func(u *models.User) {
		u.Password = passwordHash
		u.ResetOTP, u.ResetOTPExp = "", time.Time{}
	})
}

func (m *Memory) initiativeIndex(id primitive.ObjectID) int {
	for i := range m.initiatives {
		if m.initiatives[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) CreateInitiative(_ context.Context, in *models.Initiative) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	if in.Participants == nil {
		in.Participants = []models.Participant{}
	}
	m.initiatives = append(m.initiatives, cloneInitiative(*in))
	return nil
}

func (m *Memory) InitiativeByID(_ context.Context, id primitive.ObjectID) (models.Initiative, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.initiativeIndex(id); i >= 0 {
		return cloneInitiative(m.initiatives[i]), nil
	}
	return models.Initiative{}, ErrNotFound
}

func (m *Memory) InitiativesByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Initiative, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Initiative{}
	for _, id := range ids {
		if i := m.initiativeIndex(id); i >= 0 {
			out = append(out, cloneInitiative(m.initiatives[i]))
		}
	}
	return out, nil
}

func (m *Memory) ListInitiatives(_ context.Context, f InitiativeFilter, p Page) ([]models.Initiative, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := []models.Initiative{}
	for i := len(m.initiatives) - 1; i >= 0; i-- {
		in := m.initiatives[i]
		if f.Category != "" && in.Category != f.Category {
			continue
		}
		if f.Country != "" && in.Location.Country != f.Country {
			continue
		}
		if f.Status != "" && in.Status != f.Status {
			continue
		}
		matched = append(matched, cloneInitiative(in))
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, p), int64(len(matched)), nil
}

func (m *Memory) UpdateInitiative(_ context.Context, id primitive.ObjectID, u models.InitiativeUpdate, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.initiativeIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	u.Apply(&m.initiatives[i])
	m.initiatives[i].UpdatedAt = at
	return nil
}

func (m *Memory) DeleteInitiative(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.initiativeIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	m.initiatives = append(m.initiatives[:i], m.initiatives[i+1:]...)
	return nil
}

func (m *Memory) AddParticipant(_ context.Context, initiativeID, userID primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.initiativeIndex(initiativeID)
	if i < 0 {
		return ErrNotFound
	}
	if m.initiatives[i].HasParticipant(userID) {
		return ErrAlreadyJoined
	}
	m.initiatives[i].Participants = append(m.initiatives[i].Participants, models.Participant{User: userID, JoinedAt: at})
	m.initiatives[i].UpdatedAt = at
	return nil
}

func (m *Memory) CreateApplication(_ context.Context, a *models.VolunteerApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.applications {
		if existing.User == a.User && existing.Initiative == a.Initiative {
			return ErrDuplicate
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	m.applications = append(m.applications, cloneApplication(*a))
	return nil
}

func (m *Memory) ApplicationByID(_ context.Context, id primitive.ObjectID) (models.VolunteerApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.applications {
		if a.ID == id {
			return cloneApplication(a), nil
		}
	}
	return models.VolunteerApplication{}, ErrNotFound
}

func (m *Memory) ApplicationExists(_ context.Context, userID, initiativeID primitive.ObjectID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.applications {
		if a.User == userID && a.Initiative == initiativeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ApplicationsByUser(_ context.Context, userID primitive.ObjectID) ([]models.VolunteerApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.VolunteerApplication{}
	for i := len(m.applications) - 1; i >= 0; i-- {
		if m.applications[i].User == userID {
			out = append(out, cloneApplication(m.applications[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

func (m *Memory) ReviewApplication(_ context.Context, id primitive.ObjectID, r models.ApplicationReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.applications {
		a := &m.applications[i]
		if a.ID != id {
			continue
		}
		a.Status = r.Status
		if r.ReviewedBy != nil {
			by, at := *r.ReviewedBy, r.At
			a.ReviewedBy = &by
			a.ReviewedAt = &at
		}
		if r.Notes != "" {
			a.ReviewNotes = r.Notes
		}
		return nil
	}
	return ErrNotFound
}

func (m *Memory) CreateDonation(_ context.Context, d *models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	m.donations = append(m.donations, *d)
	return nil
}

func (m *Memory) DonationByID(_ context.Context, id primitive.ObjectID) (models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.donations {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Donation{}, ErrNotFound
}

func (m *Memory) SettleDonation(_ context.Context, id primitive.ObjectID, status, paymentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.donations {
		d := &m.donations[i]
		if d.ID != id || d.PaymentStatus != models.PaymentPending {
			continue
		}
		d.PaymentStatus = status
		d.SettledAt = &at
		if paymentID != "" {
			d.PaymentID = paymentID
		}
		return nil
	}
	return ErrNotFound
}

func (m *Memory) PendingDonations(_ context.Context, createdBefore time.Time) ([]models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Donation{}
	for _, d := range m.donations {
		if d.PaymentStatus == models.PaymentPending && d.CreatedAt.Before(createdBefore) {
			out = append(out, d)
		}
	}
	return out, nil
}

func paginate[T any](items []T, p Page) []T {
	start := int(p.skip())
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return items[start:end]
}

func cloneUser(u models.User) models.User {
	u.Interests = append([]string(nil), u.Interests...)
	return u
}

func cloneInitiative(in models.Initiative) models.Initiative {
	in.Participants = append([]models.Participant{}, in.Participants...)
	return in
}

func cloneApplication(a models.VolunteerApplication) models.VolunteerApplication {
	a.Skills = append([]string{}, a.Skills...)
	return a
}

var _ Store = (*Memory)(nil)
