package requests

import (
	"context"
	"database/sql"
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

// Create inserts request and fills in its id and creation time. An empty
// SpecialRequirements is stored as NULL. A ClientID with no matching user
// yields common.ErrUnknownClient.
func (r *PostgresRepository) Create(ctx context.Context, request *models.Request) (*models.Request, error) {

	query :=
		`INSERT INTO requests (client_id, description, delivery_type, status, special_requirements)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	special := sql.NullString{String: request.SpecialRequirements, Valid: request.SpecialRequirements != ""}

	err := r.db.QueryRowContext(ctx, query,
		request.ClientID, request.Description, request.DeliveryType, request.Status, special).
		Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrUnknownClient
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return request, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
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

// List returns every request with its client's name, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.RequestView, error) {
	query :=
		`SELECT r.id, r.client_id, u.name, r.description, r.special_requirements,
		        r.delivery_type, r.status, r.reason_for_rejection,
		        r.estimated_delivery_date, r.created_at
		 FROM requests r
		 JOIN users u ON r.client_id = u.id
		 ORDER BY r.created_at DESC, r.id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select requests: %w", err)
	}
	defer rows.Close()

	result := make([]*models.RequestView, 0)
	for rows.Next() {
		item := &models.RequestView{}
		err := rows.Scan(&item.ID, &item.ClientID, &item.ClientName, &item.Description,
			&item.SpecialRequirements, &item.DeliveryType, &item.Status,
			&item.ReasonForRejection, &item.EstimatedDeliveryDate, &item.CreatedAt)
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
