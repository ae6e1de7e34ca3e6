package store

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
)

func (m *Memory) DonationTotals(context.Context) (models.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.donationTotals(), nil
}

func (m *Memory) donationTotals() models.Totals {
	var t models.Totals
	for _, d := range m.donations {
		if d.PaymentStatus == models.PaymentCompleted {
			t.Total += d.Amount
			t.Count++
		}
	}
	return t
}

func (m *Memory) DonationsByCountry(context.Context) ([]models.CountryTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	country := make(map[primitive.ObjectID]string, len(m.users))
	for _, u := range m.users {
		country[u.ID] = u.Country
	}

	byCountry := map[string]*models.CountryTotal{}
	order := []string{}
	for _, d := range m.donations {
		if d.PaymentStatus != models.PaymentCompleted || d.Donor == nil {
			continue
		}
		c, ok := country[*d.Donor]
		if !ok {
			continue
		}
		row, ok := byCountry[c]
		if !ok {
			row = &models.CountryTotal{Country: c}
			byCountry[c] = row
			order = append(order, c)
		}
		row.Total += d.Amount
		row.Count++
	}

	out := make([]models.CountryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, *byCountry[c])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func (m *Memory) PlatformCounts(context.Context) (models.PlatformCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var c models.PlatformCounts
	countries := map[string]struct{}{}
	for _, u := range m.users {
		if u.IsActive {
			c.ActiveUsers++
		}
		countries[u.Country] = struct{}{}
	}
	c.Countries = int64(len(countries))

	for _, in := range m.initiatives {
		if in.Status == models.InitiativeActive || in.Status == models.InitiativeCompleted {
			c.ListedInitiatives++
		}
		c.TotalLivesTouched += in.Impact.LivesTouched
		c.TotalVolunteerHours += in.Impact.VolunteerHours
	}
	for _, a := range m.applications {
		if a.Status == models.ApplicationApproved {
			c.ApprovedVolunteers++
		}
	}
	return c, nil
}

func (m *Memory) AdminStats(context.Context) (models.AdminStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s models.AdminStats
	for _, u := range m.users {
		if u.IsActive {
			s.Overview.TotalUsers++
		}
	}
	s.Overview.TotalInitiatives = int64(len(m.initiatives))
	s.Overview.TotalVolunteerApplications = int64(len(m.applications))
	totals := m.donationTotals()
	s.Overview.TotalDonations = totals.Total
	s.Overview.DonationCount = totals.Count

	s.UsersByCountry = groupCounts(len(m.users), func(i int) string { return m.users[i].Country })
	if len(s.UsersByCountry) > 10 {
		s.UsersByCountry = s.UsersByCountry[:10]
	}
	s.InitiativesByCategory = groupCounts(len(m.initiatives), func(i int) string { return m.initiatives[i].Category })
	return s, nil
}

func groupCounts(n int, key func(int) string) []models.GroupCount {
	counts := map[string]int64{}
	order := []string{}
	for i := 0; i < n; i++ {
		k := key(i)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]models.GroupCount, 0, len(order))
	for _, k := range order {
		out = append(out, models.GroupCount{Key: k, Count: counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
