package projects

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/dbx"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts project. The id, completion percentage and creation time
// come back from the database defaults. A second project for the same request
// is rejected with common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {

	query :=
		`INSERT INTO projects (request_id, status)
		 VALUES ($1, $2)
		 RETURNING id, completion_percentage, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, project.RequestID, project.Status).
		Scan(&project.ID, &project.CompletionPercentage, &project.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return project, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// List returns every project, newest first. ProjectManagerName is nil for
// projects nobody manages yet.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.ProjectView, error) {
	query :=
		`SELECT p.id, p.request_id, p.project_manager_id, pm.name,
		        p.status, p.completion_percentage, p.created_at
		 FROM projects p
		 LEFT JOIN users pm ON p.project_manager_id = pm.id
		 ORDER BY p.created_at DESC, p.id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ProjectView, 0)
	for rows.Next() {
		item := &models.ProjectView{}
		err := rows.Scan(&item.ID, &item.RequestID, &item.ProjectManagerID, &item.ProjectManagerName,
			&item.Status, &item.CompletionPercentage, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
