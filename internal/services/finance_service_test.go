package services

import (
	"testing"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	"github.com/agrifleet/agrifleet-backend/internal/report"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	rows map[string]models.FinanceRecord
	err  error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: map[string]models.FinanceRecord{}}
}

func (f *fakeRecords) Create(r models.FinanceRecord) (models.FinanceRecord, error) {
	if f.err != nil {
		return models.FinanceRecord{}, f.err
	}
	if r.ID == "" {
		r.ID = "rec-" + r.Title
	}
	f.rows[r.ID] = r
	return r, nil
}

func (f *fakeRecords) GetByID(id string) (models.FinanceRecord, error) {
	r, ok := f.rows[id]
	if !ok {
		return models.FinanceRecord{}, repo.ErrNotFound
	}
	return r, nil
}

func (f *fakeRecords) ListByOwnerBetween(ownerID string, start, end time.Time) ([]models.FinanceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.FinanceRecord
	for _, r := range f.rows {
		if r.OwnerID != ownerID || r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRecords) ListByOwner(ownerID string) ([]models.FinanceRecord, error) {
	var out []models.FinanceRecord
	for _, r := range f.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) Update(r models.FinanceRecord) error {
	if f.err != nil {
		return f.err
	}
	f.rows[r.ID] = r
	return nil
}

func (f *fakeRecords) Delete(id string) error { delete(f.rows, id); return nil }

func seedRecord(f *fakeRecords, title string, amount float64, income bool, category string, date time.Time) {
	f.rows["rec-"+title] = models.FinanceRecord{
		ID: "rec-" + title, OwnerID: "u1", Title: title,
		Amount: amount, IsIncome: income, Category: category, Date: date,
	}
}

func TestCreateValidatesRecord(t *testing.T) {
	svc := NewFinanceService(newFakeRecords())

	_, err := svc.Create(models.FinanceRecord{Title: "bad", Amount: -5, Category: "fuel"})
	assert.Error(t, err)

	_, err = svc.Create(models.FinanceRecord{Title: "", Amount: 10, Category: "fuel"})
	assert.Error(t, err)

	rec, err := svc.Create(models.FinanceRecord{OwnerID: "u1", Title: "diesel", Amount: 50, Category: "fuel"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Date.IsZero(), "missing date defaults to now")
}

func TestDailyReportHasHourlyBreakdown(t *testing.T) {
	f := newFakeRecords()
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRecord(f, "milk", 45, true, "dairy", day.Add(6*time.Hour))
	seedRecord(f, "feed", 20, false, "inputs", day.Add(7*time.Hour))
	seedRecord(f, "other day", 99, true, "dairy", day.AddDate(0, 0, 1))

	svc := NewFinanceService(f)
	rep, err := svc.DailyReport("u1", day.Add(13*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, report.PeriodDaily, rep.Period)
	require.Len(t, rep.Hours, 24)
	assert.InDelta(t, 45, rep.TotalIncome, 1e-9)
	assert.InDelta(t, 20, rep.TotalExpense, 1e-9)
	assert.InDelta(t, 25, rep.Balance, 1e-9)
}

func TestWeeklyReportWindow(t *testing.T) {
	f := newFakeRecords()
	day := time.Date(2025, time.March, 16, 12, 0, 0, 0, time.UTC)
	seedRecord(f, "inside", 100, true, "crops", day.AddDate(0, 0, -6))
	seedRecord(f, "outside", 100, true, "crops", day.AddDate(0, 0, -7))

	svc := NewFinanceService(f)
	rep, err := svc.WeeklyReport("u1", day)
	require.NoError(t, err)

	assert.Equal(t, report.PeriodWeekly, rep.Period)
	assert.Len(t, rep.Days, 7)
	assert.InDelta(t, 100, rep.TotalIncome, 1e-9)
	assert.Nil(t, rep.Hours)
}

func TestReportFailsOnlyOnFetch(t *testing.T) {
	f := newFakeRecords()
	f.err = errDown

	svc := NewFinanceService(f)
	_, err := svc.Report("u1", time.Now().AddDate(0, 0, -1), time.Now())
	assert.ErrorIs(t, err, errDown)
}

func TestReportIgnoresOtherOwners(t *testing.T) {
	f := newFakeRecords()
	now := time.Now()
	seedRecord(f, "mine", 100, true, "crops", now)
	f.rows["rec-theirs"] = models.FinanceRecord{
		ID: "rec-theirs", OwnerID: "u2", Title: "theirs",
		Amount: 500, IsIncome: true, Category: "crops", Date: now,
	}

	svc := NewFinanceService(f)
	rep, err := svc.Report("u1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 100, rep.TotalIncome, 1e-9)
}
