// Package services contains server-side business logic: account
// registration and login, request intake and the dashboard listings.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/server/auth"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const minPasswordLength = 6

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  models.PublicUser
	Token string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
	}
}

type signupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in signupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(minPasswordLength, 0)),
	)
}

// RegisterUser creates a client account. An email that is already taken is
// reported as common.ErrDuplicateEmail, whether the lookup or the unique
// index caught it.
func (s *UserService) RegisterUser(ctx context.Context, name, email, password string) (*models.PublicUser, error) {

	in := signupInput{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, common.ErrDuplicateEmail
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internal(err)
	}

	user, err := repo.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       common.DefaultRoleID,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, internal(err)
	}

	pub := user.Public()
	return &pub, nil
}

// dummyHash is compared against when the email is unknown, so that both
// login failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("annotrack-dummy-password")
	return h
})

// LoginUser checks the credentials and issues a session token. Unknown
// email and wrong password both yield common.ErrInvalidCredentials.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*LoginResult, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.ComparePassword(dummyHash(), password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, internal(err)
	}

	if !auth.ComparePassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Claims{UserID: user.ID, Email: user.Email, RoleID: user.RoleID})
	if err != nil {
		return nil, internal(err)
	}

	return &LoginResult{User: user.Public(), Token: token}, nil
}

// GetUser returns the public view of user id, or common.ErrorNotFound.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internal(err)
	}
	pub := user.Public()
	return &pub, nil
}
