package services

import (
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	"github.com/agrifleet/agrifleet-backend/internal/report"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
)

// FinanceService owns the bookkeeping records and builds reports over
// them. Reports are derived on demand, never stored; the only way a
// report call can fail is the record fetch.
type FinanceService struct {
	r repo.FinanceRecords
}

func NewFinanceService(r repo.FinanceRecords) *FinanceService {
	return &FinanceService{r: r}
}

func (s *FinanceService) Create(rec models.FinanceRecord) (models.FinanceRecord, error) {
	if err := rec.Validate(); err != nil {
		return models.FinanceRecord{}, err
	}
	return s.r.Create(rec)
}

func (s *FinanceService) Update(rec models.FinanceRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.r.Update(rec)
}

func (s *FinanceService) Delete(id string) error { return s.r.Delete(id) }

func (s *FinanceService) Get(id string) (models.FinanceRecord, error) { return s.r.GetByID(id) }

func (s *FinanceService) List(ownerID string) ([]models.FinanceRecord, error) {
	return s.r.ListByOwner(ownerID)
}

// Report builds the aggregate report for the owner's records inside
// [start, end] inclusive.
func (s *FinanceService) Report(ownerID string, start, end time.Time) (report.Report, error) {
	records, err := s.r.ListByOwnerBetween(ownerID, start, end)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(records, start, end), nil
}

// DailyReport covers one calendar day, hourly breakdowns included.
func (s *FinanceService) DailyReport(ownerID string, day time.Time) (report.Report, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return s.Report(ownerID, start, end)
}

// WeeklyReport covers the 7 days ending on day.
func (s *FinanceService) WeeklyReport(ownerID string, day time.Time) (report.Report, error) {
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).AddDate(0, 0, -6)
	return s.Report(ownerID, start, end)
}

// MonthlyReport covers the calendar month containing day.
func (s *FinanceService) MonthlyReport(ownerID string, day time.Time) (report.Report, error) {
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return s.Report(ownerID, start, end)
}
