package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"binsorter/internal/config"
	"binsorter/internal/dto"
	"binsorter/internal/logger"
	"binsorter/internal/model"
	"binsorter/internal/repository"
	"binsorter/internal/waste"
)

const (
	maxHistoryPage  = 1_000_000
	maxHistoryLimit = 200
)

// HistoryHandler returns a filtered, paginated page of past classifications.
func HistoryHandler(cfg *config.Config, logger *logger.Logger,
	classificationRepo repository.ClassificationRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		q := r.URL.Query()
		page := min(atoiDefault(q.Get("page"), 1), maxHistoryPage)
		limit := min(atoiDefault(q.Get("limit"), 24), maxHistoryLimit)

		bin := q.Get("bin")
		if bin != "" && !waste.BinColor(bin).Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown bin %q, expected one of %v", bin, waste.Bins()))
			return
		}

		filter := &dto.HistoryFilters{
			Bin:        bin,
			Label:      q.Get("label"),
			Status:     q.Get("status"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		rows, err := classificationRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying history from database: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		totalSize, err := classificationRepo.GetTotalSize()
		if err != nil {
			logger.Error("Error getting history size: %v", err)
			totalSize = 0
		}

		totalCount, err := classificationRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting history: %v", err)
			totalCount = len(rows)
		}

		entries := make([]dto.HistoryEntry, 0, len(rows))
		for _, row := range rows {
			objects := []string{}
			detections := []model.Detection{}
			if detectionRepo != nil {
				dets, err := detectionRepo.GetByClassificationID(row.ID)
				if err != nil {
					logger.Error("Error getting detections for classification %d: %v", row.ID, err)
				} else if dets != nil {
					detections = dets
				}
			}
			seen := make(map[string]bool, len(detections))
			for _, det := range detections {
				if !seen[det.Label] {
					seen[det.Label] = true
					objects = append(objects, det.Label)
				}
			}

			entries = append(entries, dto.HistoryEntry{
				Name:       row.Filename,
				Date:       row.Timestamp,
				TimeOfDay:  row.Timestamp,
				Status:     row.Status,
				Label:      row.Label,
				Confidence: row.Confidence,
				Bin:        row.Bin,
				Objects:    objects,
				Detections: detections,
			})
		}

		data := dto.HistoryData{
			Entries:     entries,
			ImagesDir:   cfg.ImageDirectory,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		if err := writeJSON(w, http.StatusOK, data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// HistoryStatsHandler returns counts per bin, status and label.
func HistoryStatsHandler(logger *logger.Logger,
	classificationRepo repository.ClassificationRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		stats, err := classificationRepo.GetStats()
		if err != nil {
			logger.Error("Error computing history stats: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		stats.Labels = []string{}
		if detectionRepo != nil {
			labels, err := detectionRepo.GetAllLabels()
			if err != nil {
				logger.Error("Error listing detected labels: %v", err)
			} else if labels != nil {
				stats.Labels = labels
			}
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// DeleteHistoryHandler removes one annotated image from disk and history.
func DeleteHistoryHandler(cfg *config.Config, logger *logger.Logger,
	classificationRepo repository.ClassificationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		filename := cleanName(r.FormValue("filename"))
		if filename == "" {
			writeError(w, http.StatusBadRequest, "Filename required")
			return
		}

		row, err := classificationRepo.GetByFilename(filename)
		if err != nil {
			logger.Error("Failed to look up %s: %v", filename, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		filePath := filepath.Join(cfg.ImageDirectory, filename)
		removed := true
		if err := os.Remove(filePath); err != nil {
			removed = false
			if !os.IsNotExist(err) {
				logger.Error("Failed to delete file %s: %v", filePath, err)
			}
		}

		if row == nil {
			if !removed {
				writeError(w, http.StatusNotFound, "Not found")
				return
			}
		} else if err := classificationRepo.Delete(row.ID); err != nil {
			logger.Error("Failed to delete from database: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		logger.Info("Deleted classification: %s", filename)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearHistoryHandler deletes every stored image and clears the history tables.
func ClearHistoryHandler(cfg *config.Config, logger *logger.Logger,
	classificationRepo repository.ClassificationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		files, err := os.ReadDir(cfg.ImageDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading images directory: %v", err)
			writeError(w, http.StatusInternalServerError, "Unable to read images directory")
			return
		}

		for _, file := range files {
			if !file.IsDir() {
				if err := os.Remove(filepath.Join(cfg.ImageDirectory, file.Name())); err != nil {
					logger.Error("Error deleting file %s: %v", file.Name(), err)
				}
			}
		}

		if err := classificationRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		logger.Info("History cleared from directory: %s", cfg.ImageDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ViewHistoryImageHandler serves a single annotated image given by the "image" query parameter.
func ViewHistoryImageHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := cleanName(r.URL.Query().Get("image"))
		if image == "" {
			writeError(w, http.StatusBadRequest, "Image parameter is required")
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.ImageDirectory, image))
	}
}

// cleanName keeps only the final path element so requests cannot leave the image directory.
func cleanName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
