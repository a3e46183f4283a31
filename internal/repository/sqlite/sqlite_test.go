package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"binsorter/internal/dto"
	"binsorter/internal/model"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")
	return db
}

func newClassification(name, status, label, bin string, ts time.Time) *model.Classification {
	return &model.Classification{
		Filename:   name,
		Source:     "upload",
		Status:     status,
		Label:      label,
		Confidence: 0.9,
		Bin:        bin,
		Timestamp:  ts,
		FilePath:   "/images/" + name,
		FileSize:   100,
	}
}

func TestClassificationRepository_InsertAndGet(t *testing.T) {
	repo := NewClassificationRepository(setupTestDB(t))

	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	id, err := repo.Insert(newClassification("plastic.jpg", "sorted", "plastic", "Blue", ts))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.GetByFilename("plastic.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, id, got.ID)
	require.Equal(t, "Blue", got.Bin)
	require.Equal(t, "sorted", got.Status)
	require.True(t, ts.Equal(got.Timestamp))
}

func TestClassificationRepository_NotFound(t *testing.T) {
	repo := NewClassificationRepository(setupTestDB(t))

	got, err := repo.GetByFilename("missing.jpg")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClassificationRepository_DuplicateFilename(t *testing.T) {
	repo := NewClassificationRepository(setupTestDB(t))

	c := newClassification("dup.jpg", "sorted", "paper", "Blue", time.Now())
	_, err := repo.Insert(c)
	require.NoError(t, err)
	_, err = repo.Insert(c)
	require.Error(t, err)
}

func TestClassificationRepository_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepository(db)
	detRepo := NewDetectionRepository(db)

	day1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	rows := []struct {
		c      *model.Classification
		labels []string
	}{
		{newClassification("a.jpg", "sorted", "plastic", "Blue", day1), []string{"plastic", "battery"}},
		{newClassification("b.jpg", "sorted", "battery", "Red", day1), []string{"battery"}},
		{newClassification("c.jpg", "sorted", "paper", "Blue", day2), []string{"paper"}},
		{newClassification("d.jpg", "nothing_found", "", "", day2), nil},
	}
	for _, row := range rows {
		id, err := repo.Insert(row.c)
		require.NoError(t, err)
		var dets []model.Detection
		for _, label := range row.labels {
			dets = append(dets, model.Detection{ClassificationID: id, Label: label, Confidence: 0.8})
		}
		if len(dets) > 0 {
			require.NoError(t, detRepo.InsertBatch(dets))
		}
	}

	tests := []struct {
		name     string
		filter   *dto.HistoryFilters
		expected int
	}{
		{"no filter", &dto.HistoryFilters{}, 4},
		{"nil filter", nil, 4},
		{"blue bin", &dto.HistoryFilters{Bin: "Blue"}, 2},
		{"status", &dto.HistoryFilters{Status: "nothing_found"}, 1},
		{"label anywhere", &dto.HistoryFilters{Label: "battery"}, 2},
		{"date after", &dto.HistoryFilters{DateAfter: day2}, 2},
		{"date before", &dto.HistoryFilters{DateBefore: day1}, 2},
		{"combined", &dto.HistoryFilters{Bin: "Blue", DateAfter: day2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, err := repo.GetAll(tt.filter)
			require.NoError(t, err)
			require.Len(t, all, tt.expected)

			count, err := repo.GetTotalCount(tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.expected, count)
		})
	}

	page, err := repo.GetAll(&dto.HistoryFilters{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "a.jpg", page[0].Filename)
}

func TestClassificationRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepository(db)
	detRepo := NewDetectionRepository(db)

	for i, bin := range []string{"Blue", "Blue", "Red", ""} {
		status := "sorted"
		if bin == "" {
			status = "unrecognized"
		}
		id, err := repo.Insert(newClassification(fmt.Sprintf("s%d.jpg", i), status, "x", bin, time.Now()))
		require.NoError(t, err)
		require.NoError(t, detRepo.InsertBatch([]model.Detection{{ClassificationID: id, Label: "plastic", Bin: bin}}))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalClassifications)
	require.Equal(t, int64(400), stats.TotalSizeBytes)
	require.Equal(t, map[string]int{"Blue": 2, "Red": 1}, stats.PerBin)
	require.Equal(t, 3, stats.PerStatus["sorted"])
	require.Equal(t, 1, stats.PerStatus["unrecognized"])
	require.Equal(t, 4, stats.LabelCounts["plastic"])

	size, err := repo.GetTotalSize()
	require.NoError(t, err)
	require.Equal(t, int64(400), size)
}

func TestClassificationRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepository(db)
	detRepo := NewDetectionRepository(db)

	id, err := repo.Insert(newClassification("del.jpg", "sorted", "glass", "Blue", time.Now()))
	require.NoError(t, err)
	require.NoError(t, detRepo.InsertBatch([]model.Detection{{ClassificationID: id, Label: "glass", Bin: "Blue"}}))

	require.NoError(t, repo.Delete(id))
	got, err := repo.GetByFilename("del.jpg")
	require.NoError(t, err)
	require.Nil(t, got)

	dets, err := detRepo.GetByClassificationID(id)
	require.NoError(t, err)
	require.Empty(t, dets)

	labels, err := detRepo.GetAllLabels()
	require.NoError(t, err)
	require.Empty(t, labels)
}

func TestClassificationRepository_DeleteAll(t *testing.T) {
	repo := NewClassificationRepository(setupTestDB(t))

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(newClassification(fmt.Sprintf("all_%d.jpg", i), "sorted", "metal", "Blue", time.Now()))
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteAll())
	count, err := repo.GetTotalCount(&dto.HistoryFilters{})
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestDetectionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepository(db)
	detRepo := NewDetectionRepository(db)

	id, err := repo.Insert(newClassification("dets.jpg", "sorted", "plastic", "Blue", time.Now()))
	require.NoError(t, err)

	require.NoError(t, detRepo.InsertBatch([]model.Detection{
		{ClassificationID: id, Label: "battery", Bin: "Red", X0: 1, Y0: 2, X1: 30, Y1: 40, Confidence: 0.9},
		{ClassificationID: id, Label: "plastic", Bin: "Blue", X0: 5, Y0: 5, X1: 50, Y1: 50, Confidence: 0.95},
		{ClassificationID: id, Label: "plastic", Bin: "Blue", Confidence: 0.5},
	}))

	dets, err := detRepo.GetByClassificationID(id)
	require.NoError(t, err)
	require.Len(t, dets, 3)
	require.Equal(t, "plastic", dets[0].Label)
	require.Equal(t, 0.95, dets[0].Confidence)
	require.Equal(t, 30, dets[1].X1)

	all, err := detRepo.GetAllLabels()
	require.NoError(t, err)
	require.Equal(t, []string{"battery", "plastic"}, all)
}
