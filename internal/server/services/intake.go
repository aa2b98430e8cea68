package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/dbx"
	"github.com/dmitrijs2005/annotrack/internal/logging"
	"github.com/dmitrijs2005/annotrack/internal/server/config"
	"github.com/dmitrijs2005/annotrack/internal/server/metrics"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/annotrack/internal/server/storage"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Stage is the last intake step that completed.
type Stage int

const (
	StageCreated Stage = iota
	StageRequestPersisted
	StageProjectPersisted
	StageFilesRelocated
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageRequestPersisted:
		return "request_persisted"
	case StageProjectPersisted:
		return "project_persisted"
	case StageFilesRelocated:
		return "files_relocated"
	case StageComplete:
		return "complete"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// IntakeError reports a failed intake. Stage is the last step that
// succeeded; RequestID and ProjectID are set for the records that were
// written before the failure. Compensated is true only when those records
// were removed again.
type IntakeError struct {
	Stage       Stage
	RequestID   int64
	ProjectID   int64
	Compensated bool
	Err         error
}

func (e *IntakeError) Error() string {
	return fmt.Sprintf("intake failed after %s: %v", e.Stage, e.Err)
}

func (e *IntakeError) Unwrap() error { return e.Err }

type IntakeInput struct {
	ClientID            int64                 `json:"client_id"`
	Description         string                `json:"description"`
	DeliveryType        string                `json:"delivery_type"`
	SpecialInstructions string                `json:"special_instructions"`
	Files               []models.UploadedFile `json:"-"`
}

type IntakeResult struct {
	RequestID int64
	ProjectID int64
}

func (in IntakeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Description, validation.By(notBlank)),
		validation.Field(&in.DeliveryType, validation.In(models.DeliveryRegular, models.DeliveryExpress)),
	)
}

func notBlank(v interface{}) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// IntakeService records a client's annotation request, opens the project
// for it and moves the uploaded files under that project.
type IntakeService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	store             storage.FileStore
	log               logging.Logger
	metrics           *metrics.Metrics
	relocationTimeout time.Duration
	compensate        bool
}

func NewIntakeService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	store storage.FileStore, log logging.Logger, mx *metrics.Metrics) *IntakeService {
	return &IntakeService{
		db:                db,
		repomanager:       m,
		store:             store,
		log:               log.With("module", "intake"),
		metrics:           mx,
		relocationTimeout: cfg.RelocationTimeout,
		compensate:        cfg.CompensateOnFailure,
	}
}

// CreateRequest runs the intake steps in order: insert the request as
// Pending, insert its project as Annotation_Started, relocate the files.
// Invalid input fails before any side effect with a *ValidationError. A
// failed step returns an *IntakeError and, unless compensation is enabled,
// leaves the records of the earlier steps in place.
func (s *IntakeService) CreateRequest(ctx context.Context, in IntakeInput) (*IntakeResult, error) {

	if in.DeliveryType == "" {
		in.DeliveryType = models.DeliveryRegular
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	log := s.log.With("client_id", in.ClientID, "files", len(in.Files))

	req, err := s.repomanager.Requests(s.db).Create(ctx, &models.Request{
		ClientID:            in.ClientID,
		Description:         strings.TrimSpace(in.Description),
		SpecialRequirements: in.SpecialInstructions,
		DeliveryType:        in.DeliveryType,
		Status:              models.RequestStatusPending,
	})
	if err != nil {
		return nil, s.fail(ctx, log, &IntakeError{
			Stage: StageCreated,
			Err:   fmt.Errorf("%w: %w", common.ErrRequestCreation, err),
		}, len(in.Files))
	}
	log = log.With("request_id", req.ID)

	project, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		RequestID: req.ID,
		Status:    models.ProjectStatusAnnotationStarted,
	})
	if err != nil {
		ie := &IntakeError{
			Stage:     StageRequestPersisted,
			RequestID: req.ID,
			Err:       fmt.Errorf("%w: %w", common.ErrProjectCreation, err),
		}
		if s.compensate {
			ie.Compensated = s.undoRequest(ctx, log, req.ID)
		}
		return nil, s.fail(ctx, log, ie, len(in.Files))
	}
	log = log.With("project_id", project.ID)

	rctx, cancel := context.WithTimeout(ctx, s.relocationTimeout)
	err = s.store.Relocate(rctx, project.ID, in.Files)
	cancel()
	if err != nil {
		ie := &IntakeError{
			Stage:     StageProjectPersisted,
			RequestID: req.ID,
			ProjectID: project.ID,
			Err:       fmt.Errorf("%w: %w", common.ErrFileRelocation, err),
		}
		if s.compensate {
			ie.Compensated = s.undoProject(ctx, log, req.ID, project.ID)
		}
		return nil, s.fail(ctx, log, ie, len(in.Files))
	}

	s.metrics.ObserveIntake(StageComplete.String(), true, len(in.Files))
	log.Info(ctx, "annotation request created")

	return &IntakeResult{RequestID: req.ID, ProjectID: project.ID}, nil
}

func (s *IntakeService) fail(ctx context.Context, log logging.Logger, ie *IntakeError, files int) error {
	s.metrics.ObserveIntake(ie.Stage.String(), false, files)

	log.Error(ctx, "intake failed", "stage", ie.Stage.String(), "error", ie.Err)
	if !ie.Compensated && (ie.RequestID != 0 || ie.ProjectID != 0) {
		log.Warn(ctx, "intake left records behind", "orphan_request_id", ie.RequestID, "orphan_project_id", ie.ProjectID)
	}
	return ie
}

// undoRequest runs after ctx may already be cancelled, so it detaches from it.
func (s *IntakeService) undoRequest(ctx context.Context, log logging.Logger, requestID int64) bool {
	ctx = context.WithoutCancel(ctx)

	err := s.repomanager.Requests(s.db).Delete(ctx, requestID)
	s.metrics.ObserveCompensation(err == nil)
	if err != nil {
		log.Error(ctx, "compensation failed", "error", err)
		return false
	}
	return true
}

func (s *IntakeService) undoProject(ctx context.Context, log logging.Logger, requestID, projectID int64) bool {
	ctx = context.WithoutCancel(ctx)

	if err := s.store.Remove(ctx, projectID); err != nil {
		s.metrics.ObserveCompensation(false)
		log.Error(ctx, "compensation failed: removing project files", "error", err)
		return false
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Projects(tx).Delete(ctx, projectID); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if err := s.repomanager.Requests(tx).Delete(ctx, requestID); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
	s.metrics.ObserveCompensation(err == nil)
	if err != nil {
		log.Error(ctx, "compensation failed", "error", err)
		return false
	}
	return true
}
