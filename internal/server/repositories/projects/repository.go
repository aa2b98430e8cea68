package projects

import (
	"context"

	"github.com/dmitrijs2005/annotrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.ProjectView, error)
}
