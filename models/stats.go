package models

// Totals is a sum/count pair over completed donations.
type Totals struct {
	Total float64 `bson:"total" json:"total"`
	Count int64   `bson:"count" json:"count"`
}

// CountryTotal is the donation total attributed to donors of one country.
type CountryTotal struct {
	Country string  `bson:"_id" json:"country"`
	Total   float64 `bson:"total" json:"total"`
	Count   int64   `bson:"count" json:"count"`
}

// GroupCount is a document count for one grouping key.
type GroupCount struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// DonationStats is the body of GET /api/stats/donations.
type DonationStats struct {
	TotalAmount        float64        `json:"totalAmount"`
	TotalDonations     int64          `json:"totalDonations"`
	DonationsByCountry []CountryTotal `json:"donationsByCountry"`
}

// PlatformCounts are the raw figures behind the public headline metrics.
type PlatformCounts struct {
	ActiveUsers         int64
	ListedInitiatives   int64
	ApprovedVolunteers  int64
	Countries           int64
	TotalLivesTouched   int64
	TotalVolunteerHours int64
}

// PublicStats is the body of GET /api/stats.
type PublicStats struct {
	LivesTouched     int64 `json:"livesTouched"`
	CountriesReached int64 `json:"countriesReached"`
	PeaceProjects    int64 `json:"peaceProjects"`
	Volunteers       int64 `json:"volunteers"`
	TotalUsers       int64 `json:"totalUsers"`
	VolunteerHours   int64 `json:"volunteerHours"`
}

// Multipliers used when no real impact data has been recorded yet.
const (
	livesPerUser      = 4.6
	volunteersPerUser = 0.3
	hoursPerVolunteer = 150
)

// Headline turns raw counts into landing page metrics. Zero sums fall back to
// estimates derived from the user and volunteer counts.
func (c PlatformCounts) Headline() PublicStats {
	s := PublicStats{
		LivesTouched:     c.TotalLivesTouched,
		CountriesReached: c.Countries,
		PeaceProjects:    c.ListedInitiatives,
		Volunteers:       c.ApprovedVolunteers,
		TotalUsers:       c.ActiveUsers,
		VolunteerHours:   c.TotalVolunteerHours,
	}
	if s.LivesTouched == 0 {
		s.LivesTouched = int64(float64(c.ActiveUsers) * livesPerUser)
	}
	if s.Volunteers == 0 {
		s.Volunteers = int64(float64(c.ActiveUsers) * volunteersPerUser)
	}
	if s.VolunteerHours == 0 {
		s.VolunteerHours = c.ApprovedVolunteers * hoursPerVolunteer
	}
	return s
}

// AdminOverview is the headline block of GET /api/admin/stats.
type AdminOverview struct {
	TotalUsers                 int64   `json:"totalUsers"`
	TotalInitiatives           int64   `json:"totalInitiatives"`
	TotalVolunteerApplications int64   `json:"totalVolunteerApplications"`
	TotalDonations             float64 `json:"totalDonations"`
	DonationCount              int64   `json:"donationCount"`
}

// AdminStats is the body of GET /api/admin/stats.
type AdminStats struct {
	Overview              AdminOverview `json:"overview"`
	UsersByCountry        []GroupCount  `json:"usersByCountry"`
	InitiativesByCategory []GroupCount  `json:"initiativesByCategory"`
}
