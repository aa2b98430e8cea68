package services

import (
	"bytes"
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/dbx"
	"github.com/dmitrijs2005/annotrack/internal/logging"
	"github.com/dmitrijs2005/annotrack/internal/server/config"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/projects"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestLogger() (logging.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logging.NewJSONLogger(buf, "debug"), buf
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64

	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, ex := range f.byID {
		if ex.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeRequestsRepo struct {
	rows   map[int64]*models.Request
	nextID int64

	createErr error
	deleteErr error
	listErr   error
}

func newFakeRequestsRepo() *fakeRequestsRepo {
	return &fakeRequestsRepo{rows: map[int64]*models.Request{}}
}

func (f *fakeRequestsRepo) Create(ctx context.Context, r *models.Request) (*models.Request, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	cp := *r
	f.rows[r.ID] = &cp
	return r, nil
}

func (f *fakeRequestsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRequestsRepo) List(ctx context.Context) ([]*models.RequestView, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.RequestView, 0, len(f.rows))
	for id := f.nextID; id > 0; id-- {
		r, ok := f.rows[id]
		if !ok {
			continue
		}
		out = append(out, &models.RequestView{ID: r.ID, ClientID: r.ClientID, Description: r.Description,
			DeliveryType: r.DeliveryType, Status: r.Status, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

type fakeProjectsRepo struct {
	rows   map[int64]*models.Project
	nextID int64

	createErr error
	deleteErr error
	listErr   error
}

func newFakeProjectsRepo() *fakeProjectsRepo {
	return &fakeProjectsRepo{rows: map[int64]*models.Project{}}
}

func (f *fakeProjectsRepo) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	cp := *p
	f.rows[p.ID] = &cp
	return p, nil
}

func (f *fakeProjectsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProjectsRepo) List(ctx context.Context) ([]*models.ProjectView, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.ProjectView, 0, len(f.rows))
	for id := f.nextID; id > 0; id-- {
		p, ok := f.rows[id]
		if !ok {
			continue
		}
		out = append(out, &models.ProjectView{ID: p.ID, RequestID: p.RequestID, Status: p.Status,
			CompletionPercentage: p.CompletionPercentage, CreatedAt: p.CreatedAt})
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRequestsRepo
	p *fakeProjectsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRequestsRepo(), p: newFakeProjectsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Requests(db dbx.DBTX) requests.Repository    { return m.r }
func (m *fakeRepoManager) Projects(db dbx.DBTX) projects.Repository    { return m.p }

type fakeStore struct {
	relocated map[int64][]models.UploadedFile
	removed   []int64

	relocateErr error
	removeErr   error
	deadline    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{relocated: map[int64][]models.UploadedFile{}}
}

func (f *fakeStore) Relocate(ctx context.Context, projectID int64, files []models.UploadedFile) error {
	_, f.deadline = ctx.Deadline()
	if f.relocateErr != nil {
		return f.relocateErr
	}
	f.relocated[projectID] = append(f.relocated[projectID], files...)
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, projectID int64) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, projectID)
	delete(f.relocated, projectID)
	return nil
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}
