package requests

import (
	"context"

	"github.com/dmitrijs2005/annotrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, request *models.Request) (*models.Request, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.RequestView, error)
}
