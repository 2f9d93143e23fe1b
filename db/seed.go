package db

import (
	"go.uber.org/zap"

	"podium-server-go/models"
)

// CheckAndSeed writes the demo data set when neither VIPs nor categories exist.
func (s *DocumentStore) CheckAndSeed() bool {
	if len(s.VIPs()) > 0 || len(s.Categories()) > 0 {
		s.log.Info("existing data found, skipping seed")
		return false
	}
	s.log.Info("no VIPs or categories found, adding demo data")
	s.SeedData()
	return true
}

// SeedData writes three VIPs, three categories, a planning and assignments.
// Errors are logged and do not stop the remaining writes.
func (s *DocumentStore) SeedData() {
	vips := []models.VIP{
		{ID: "vip1", Name: "Dr. Amina Karim", Role: "JJIF Board"},
		{ID: "vip2", Name: "Mr. Luca Romano", Role: "Mayor"},
		{ID: "vip3", Name: "Ms. Sarah Ortega", Role: "Sponsor"},
	}
	cats := []models.Category{
		{ID: "W-57", Title: "Women -57 kg", Discipline: "Fighting", Round: "Finals", Medalists: []models.Medalist{
			{Rank: 1, Name: "Alice Dupont", Nation: "FRA", Club: "JJ Paris"},
			{Rank: 2, Name: "Marta Rossi", Nation: "ITA", Club: "Genoa JJ"},
			{Rank: 3, Name: "Elena Petrova", Nation: "BUL", Club: "Sofia Dojo"},
			{Rank: 3, Name: "Nadia Rahman", Nation: "BIH", Club: "Sarajevo JJ"},
		}},
		{ID: "M-62", Title: "Men -62 kg", Discipline: "Fighting", Round: "Finals", Medalists: []models.Medalist{
			{Rank: 1, Name: "Jan Novak", Nation: "CZE", Club: "Prague JJ"},
			{Rank: 2, Name: "Hugo Martín", Nation: "ESP", Club: "Valencia JJ"},
			{Rank: 3, Name: "Luca Bianchi", Nation: "ITA", Club: "Roma JJ"},
			{Rank: 3, Name: "Tom Müller", Nation: "GER", Club: "Berlin JJ"},
		}},
		{ID: "Duo-Mix", Title: "Duo System Mixed", Discipline: "Duo", Round: "Finals", Medalists: []models.Medalist{
			{Rank: 1, Name: "Team A", Nation: "FRA"},
			{Rank: 2, Name: "Team B", Nation: "ESP"},
			{Rank: 3, Name: "Team C", Nation: "NOR"},
			{Rank: 3, Name: "Team D", Nation: "ITA"},
		}},
	}
	planning := []models.PlanningItem{
		{Order: 1, CategoryID: "W-57"},
		{Order: 2, CategoryID: "M-62"},
		{Order: 3, CategoryID: "Duo-Mix"},
	}
	assignments := []models.Assignment{
		{CategoryID: "W-57", VipIDs: []string{"vip1", "vip2"}, VipRoles: map[string]string{}},
		{CategoryID: "M-62", VipIDs: []string{"vip2", "vip3"}, VipRoles: map[string]string{}},
		{CategoryID: "Duo-Mix", VipIDs: []string{"vip1", "vip3"}, VipRoles: map[string]string{}},
	}

	if err := s.SaveVIPs(vips); err != nil {
		s.log.Error("seeding VIPs failed", zap.Error(err))
	}
	if err := s.SaveCategories(cats); err != nil {
		s.log.Error("seeding categories failed", zap.Error(err))
	}
	if err := s.SavePlanning(planning); err != nil {
		s.log.Error("seeding planning failed", zap.Error(err))
	}
	if err := s.SaveAssignments(assignments); err != nil {
		s.log.Error("seeding assignments failed", zap.Error(err))
	}
	s.log.Info("demo data added")
}
