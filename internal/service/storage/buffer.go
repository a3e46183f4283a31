package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"binsorter/internal/config"
	"binsorter/internal/dto"
	"binsorter/internal/logger"
	"binsorter/internal/model"
	"binsorter/internal/repository"
	"binsorter/internal/waste"
)

const timestampLayout = "2006-01-02_15-04-05.000"

// BufferService buffers annotated classifications in memory and periodically
// flushes them to disk and to the history database.
type BufferService struct {
	imagesDir      string
	limit          int
	interval       time.Duration
	pending        []pendingClassification
	seq            int
	mu             sync.Mutex
	flushMu        sync.Mutex // serializes disk and database writes
	full           chan struct{}
	logger         *logger.Logger
	classification repository.ClassificationRepository
	detectionRepo  repository.DetectionRepository
	now            func() time.Time
}

type pendingClassification struct {
	dto.BufferedClassification
	filename string
	at       time.Time
}

// NewBufferService creates a new BufferService with the target directory and logger.
func NewBufferService(cfg *config.Config, logger *logger.Logger, classificationRepo repository.ClassificationRepository, detectionRepo repository.DetectionRepository) *BufferService {
	limit := cfg.ImageBufferLimit
	if limit <= 0 {
		limit = 1
	}
	interval := time.Duration(cfg.ImageBufferFlushInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BufferService{
		imagesDir:      cfg.ImageDirectory,
		limit:          limit,
		interval:       interval,
		logger:         logger,
		classification: classificationRepo,
		detectionRepo:  detectionRepo,
		full:           make(chan struct{}, 1),
		now:            time.Now,
	}
}

// Run flushes on every tick and whenever the buffer fills up until ctx is
// done, then flushes what is left.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushImages()
			return
		case <-ticker.C:
			s.FlushImages()
		case <-s.full:
			s.FlushImages()
		}
	}
}

// AddClassification queues an annotated image with its verdict and returns
// the filename it will be stored under. A full buffer wakes Run; the write
// itself never happens on the caller's goroutine.
func (s *BufferService) AddClassification(imageData []byte, source string, verdict waste.Verdict) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	timestamp := at.Format(timestampLayout)
	s.seq++
	filename := buildFilename(timestamp, s.seq, source, verdict)

	s.pending = append(s.pending, pendingClassification{
		BufferedClassification: dto.BufferedClassification{
			Timestamp: timestamp,
			Source:    source,
			Verdict:   verdict,
			Data:      imageData,
		},
		filename: filename,
		at:       at,
	})
	s.logger.Info("History buffer size: %d/%d", len(s.pending), s.limit)

	if len(s.pending) >= s.limit {
		select {
		case s.full <- struct{}{}:
		default:
		}
	}
	return filename
}

// Pending returns the number of buffered classifications.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// FlushImages writes buffered images to disk and records them in the history.
// New classifications can be queued while a flush is in progress.
func (s *BufferService) FlushImages() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.flush(batch)
}

func (s *BufferService) flush(batch []pendingClassification) {
	if len(batch) == 0 {
		return
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return
	}

	savedCount := 0
	for _, p := range batch {
		fullpath := filepath.Join(s.imagesDir, p.filename)

		if err := os.WriteFile(fullpath, p.Data, 0644); err != nil {
			s.logger.Error("Error saving image %s: %v", p.filename, err)
			continue
		}

		if s.classification != nil {
			if err := s.record(p, fullpath); err != nil {
				s.logger.Error("Error saving classification %s: %v", p.filename, err)
				if err := os.Remove(fullpath); err != nil {
					s.logger.Error("Error removing unrecorded image %s: %v", p.filename, err)
				}
				continue
			}
		}

		savedCount++
	}

	s.logger.Info("Flushed %d classifications to disk", savedCount)
}

func (s *BufferService) record(p pendingClassification, fullpath string) error {
	row := &model.Classification{
		Filename:  p.filename,
		Source:    p.Source,
		Status:    string(p.Verdict.Status),
		Bin:       string(p.Verdict.Bin),
		Timestamp: p.at,
		FilePath:  fullpath,
		FileSize:  int64(len(p.Data)),
	}
	if p.Verdict.Primary != nil {
		row.Label = string(p.Verdict.Primary.Label)
		row.Confidence = p.Verdict.Primary.Confidence
	}

	id, err := s.classification.Insert(row)
	if err != nil {
		return err
	}

	if s.detectionRepo == nil || len(p.Verdict.Items) == 0 {
		return nil
	}

	dets := make([]model.Detection, 0, len(p.Verdict.Items))
	for _, item := range p.Verdict.Items {
		dets = append(dets, model.Detection{
			ClassificationID: id,
			Label:            string(item.Label),
			Bin:              string(item.Bin),
			X0:               item.Box.X0,
			Y0:               item.Box.Y0,
			X1:               item.Box.X1,
			Y1:               item.Box.Y1,
			Confidence:       item.Confidence,
		})
	}
	if err := s.detectionRepo.InsertBatch(dets); err != nil {
		if derr := s.classification.Delete(id); derr != nil {
			s.logger.Error("Error rolling back classification %s: %v", p.filename, derr)
		}
		return fmt.Errorf("saving detections: %w", err)
	}
	return nil
}

// buildFilename names a stored image after its bin, or its status when no bin
// was chosen, and the primary label.
func buildFilename(timestamp string, seq int, source string, verdict waste.Verdict) string {
	tag := string(verdict.Status)
	if verdict.Bin != "" {
		tag = strings.ToLower(string(verdict.Bin))
	}
	name := fmt.Sprintf("%s_%04d_%s_%s", timestamp, seq%10000, sanitize(source), tag)
	if verdict.Primary != nil {
		name += "_" + sanitize(string(verdict.Primary.Label))
	}
	return name + ".jpg"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '-'
	}, s)
}
