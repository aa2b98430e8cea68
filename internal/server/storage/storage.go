// Package storage places uploaded files in durable storage, grouped by the
// project they belong to.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/annotrack/internal/server/metrics"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
)

// FileStore moves staged uploads into durable storage.
//
// Relocate must leave no staged copy behind for files it reports as moved.
// When it fails part way, files relocated before the failure stay relocated;
// Remove undoes them.
type FileStore interface {
	Relocate(ctx context.Context, projectID int64, files []models.UploadedFile) error
	Remove(ctx context.Context, projectID int64) error
}

// SafeName reduces a client supplied file name to its last path element.
// Names that would escape the project directory are rejected.
func SafeName(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return base, nil
}

type instrumented struct {
	next    FileStore
	backend string
	m       *metrics.Metrics
}

// WithMetrics wraps s so that every call is counted and timed under backend.
func WithMetrics(s FileStore, backend string, m *metrics.Metrics) FileStore {
	if m == nil {
		return s
	}
	return &instrumented{next: s, backend: backend, m: m}
}

func (i *instrumented) Relocate(ctx context.Context, projectID int64, files []models.UploadedFile) error {
	start := time.Now()
	err := i.next.Relocate(ctx, projectID, files)
	i.m.ObserveStorage(i.backend, "relocate", start, err)
	return err
}

func (i *instrumented) Remove(ctx context.Context, projectID int64) error {
	start := time.Now()
	err := i.next.Remove(ctx, projectID)
	i.m.ObserveStorage(i.backend, "remove", start, err)
	return err
}
