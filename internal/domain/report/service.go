// Package report fetches analysis report PDFs from the backend and archives
// copies in the blob store, keyed by project and fetch time.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/repository"
)

// Timestamps in archive keys avoid path separators and colons so keys are
// valid on every blob driver.
const keyTimeFormat = "20060102T150405.000Z"

// Service archives backend reports.
type Service struct {
	fetcher  Fetcher
	store    blob.Store
	projects ProjectGetter
	logger   *slog.Logger

	now func() time.Time
}

// NewService creates a report service.
func NewService(fetcher Fetcher, store blob.Store, projects ProjectGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		fetcher:  fetcher,
		store:    store,
		projects: projects,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch downloads the project's current report from the backend.
func (s *Service) Fetch(ctx context.Context, projectID string) ([]byte, error) {
	if err := s.checkProject(ctx, projectID); err != nil {
		return nil, err
	}

	data, err := s.fetcher.FetchReport(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching report: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyReport
	}
	return data, nil
}

// Archive fetches the current report and stores a copy.
func (s *Service) Archive(ctx context.Context, projectID string) (blob.Info, error) {
	_, info, err := s.FetchAndArchive(ctx, projectID)
	return info, err
}

// FetchAndArchive downloads the report and stores a copy in one pass, so
// callers that stream the PDF onward don't fetch twice.
func (s *Service) FetchAndArchive(ctx context.Context, projectID string) ([]byte, blob.Info, error) {
	data, err := s.Fetch(ctx, projectID)
	if err != nil {
		return nil, blob.Info{}, err
	}

	key := fmt.Sprintf("reports/%s/%s.pdf", projectID, s.now().UTC().Format(keyTimeFormat))
	info, err := s.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/pdf",
		Metadata:    map[string]string{"project_id": projectID},
	})
	if err != nil {
		return nil, blob.Info{}, fmt.Errorf("archiving report: %w", err)
	}

	s.logger.Info("archived report", "project_id", projectID, "key", info.Key, "size", info.Size)
	return data, info, nil
}

// List returns the archived reports for a project, oldest first. The key
// timestamp format makes lexical order chronological.
func (s *Service) List(ctx context.Context, projectID string) ([]blob.Info, error) {
	if err := s.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	infos, err := s.store.List(ctx, "reports/"+projectID+"/")
	if err != nil {
		return nil, fmt.Errorf("listing archived reports: %w", err)
	}
	return infos, nil
}

func (s *Service) checkProject(ctx context.Context, projectID string) error {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("checking project: %w", err)
	}
	return nil
}
