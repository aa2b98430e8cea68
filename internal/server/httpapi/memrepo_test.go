package httpapi

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/dbx"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/projects"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/users"
)

// memDB is an in-memory stand-in for the Postgres tables, shared by the
// three repositories below.
type memDB struct {
	mu       sync.Mutex
	users    []*models.User
	requests []*models.Request
	projects []*models.Project
	clock    time.Time
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, ex := range r.db.users {
		if ex.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = int64(len(r.db.users) + 1)
	u.CreatedAt = r.db.tick()
	cp := *u
	r.db.users = append(r.db.users, &cp)
	return u, nil
}

func (r memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memRequests struct{ db *memDB }

func (r memRequests) Create(ctx context.Context, req *models.Request) (*models.Request, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	// requests.client_id references users.id
	known := false
	for _, u := range r.db.users {
		if u.ID == req.ClientID {
			known = true
			break
		}
	}
	if !known {
		return nil, common.ErrUnknownClient
	}
	req.ID = int64(len(r.db.requests) + 1)
	req.CreatedAt = r.db.tick()
	cp := *req
	r.db.requests = append(r.db.requests, &cp)
	return req, nil
}

func (r memRequests) Delete(ctx context.Context, id int64) error {
	return common.ErrorNotFound
}

func (r memRequests) List(ctx context.Context) ([]*models.RequestView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.RequestView, 0, len(r.db.requests))
	for _, req := range r.db.requests {
		v := &models.RequestView{ID: req.ID, ClientID: req.ClientID, Description: req.Description,
			DeliveryType: req.DeliveryType, Status: req.Status, CreatedAt: req.CreatedAt}
		if req.SpecialRequirements != "" {
			s := req.SpecialRequirements
			v.SpecialRequirements = &s
		}
		for _, u := range r.db.users {
			if u.ID == req.ClientID {
				v.ClientName = u.Name
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memProjects struct{ db *memDB }

func (r memProjects) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, ex := range r.db.projects {
		if ex.RequestID == p.RequestID {
			return nil, common.ErrorAlreadyExists
		}
	}
	p.ID = int64(len(r.db.projects) + 1)
	p.CreatedAt = r.db.tick()
	cp := *p
	r.db.projects = append(r.db.projects, &cp)
	return p, nil
}

func (r memProjects) Delete(ctx context.Context, id int64) error {
	return common.ErrorNotFound
}

func (r memProjects) List(ctx context.Context) ([]*models.ProjectView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.ProjectView, 0, len(r.db.projects))
	for _, p := range r.db.projects {
		out = append(out, &models.ProjectView{ID: p.ID, RequestID: p.RequestID, Status: p.Status,
			CompletionPercentage: p.CompletionPercentage, CreatedAt: p.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memRepoManager struct{ db *memDB }

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{db: &memDB{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}}
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) users.Repository          { return memUsers{m.db} }
func (m *memRepoManager) Requests(dbx.DBTX) requests.Repository    { return memRequests{m.db} }
func (m *memRepoManager) Projects(dbx.DBTX) projects.Repository    { return memProjects{m.db} }
