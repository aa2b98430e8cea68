package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/repomanager"
)

// ListingService serves the read-only dashboard queries.
type ListingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewListingService(db *sql.DB, m repomanager.RepositoryManager) *ListingService {
	return &ListingService{db: db, repomanager: m}
}

func (s *ListingService) ListRequests(ctx context.Context) ([]*models.RequestView, error) {
	items, err := s.repomanager.Requests(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", internal(err))
	}
	return items, nil
}

func (s *ListingService) ListProjects(ctx context.Context) ([]*models.ProjectView, error) {
	items, err := s.repomanager.Projects(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", internal(err))
	}
	return items, nil
}
