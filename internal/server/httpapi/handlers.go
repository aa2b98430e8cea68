package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/logging"
	"github.com/dmitrijs2005/annotrack/internal/server/auth"
	"github.com/dmitrijs2005/annotrack/internal/server/metrics"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/dmitrijs2005/annotrack/internal/server/services"
)

type UserService interface {
	RegisterUser(ctx context.Context, name, email, password string) (*models.PublicUser, error)
	LoginUser(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetUser(ctx context.Context, id int64) (*models.PublicUser, error)
}

type IntakeService interface {
	CreateRequest(ctx context.Context, in services.IntakeInput) (*services.IntakeResult, error)
}

type ListingService interface {
	ListRequests(ctx context.Context) ([]*models.RequestView, error)
	ListProjects(ctx context.Context) ([]*models.ProjectView, error)
}

const msgInternal = "Internal server error"

type handlers struct {
	users          UserService
	intake         IntakeService
	listing        ListingService
	log            logging.Logger
	metrics        *metrics.Metrics
	stagingDir     string
	maxUploadBytes int64
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
	Token   string            `json:"token"`
}

type dashboardResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

type intakeResponse struct {
	Message   string `json:"message"`
	RequestID int64  `json:"requestId"`
	ProjectID int64  `json:"projectId"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.ObserveAuth("signup", false)
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.users.RegisterUser(r.Context(), req.Name, req.Email, req.Password)
	h.metrics.ObserveAuth("signup", err == nil)
	if err != nil {
		switch {
		case services.IsValidation(err), errors.Is(err, common.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error(r.Context(), "signup failed", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	h.log.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, signupResponse{Message: "User created successfully", User: *user})
}

func (h *handlers) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.ObserveAuth("signin", false)
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	res, err := h.users.LoginUser(r.Context(), req.Email, req.Password)
	h.metrics.ObserveAuth("signin", err == nil)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, common.ErrInvalidCredentials.Error())
			return
		}
		h.log.Error(r.Context(), "signin failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, signinResponse{Message: "Login successful", User: res.User, Token: res.Token})
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		h.log.Error(r.Context(), "dashboard failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch user data.")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Message: fmt.Sprintf("Welcome to your dashboard, user #%d", claims.UserID),
		User:    *user,
	})
}

func (h *handlers) listRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.listing.ListRequests(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "list requests failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": items})
}

func (h *handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.listing.ListProjects(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "list projects failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": items})
}

// createRequestWithUpload stages the uploaded files, runs the intake and
// then clears whatever the intake left in staging.
func (h *handlers) createRequestWithUpload(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	form, err := stageUploads(r, h.stagingDir)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Upload is too large.")
		case errors.Is(err, errNotMultipart):
			writeError(w, http.StatusBadRequest, "Expected multipart/form-data.")
		case errors.Is(err, errUnexpectedFile):
			writeError(w, http.StatusBadRequest, "Files must be sent in the \"files\" field.")
		default:
			h.log.Error(r.Context(), "staging upload failed", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid upload.")
		}
		return
	}
	defer func() {
		for _, err := range removeStaged(form.Files) {
			h.log.Warn(r.Context(), "staged file left behind", "error", err)
		}
	}()

	res, err := h.intake.CreateRequest(r.Context(), services.IntakeInput{
		ClientID:            claims.UserID,
		Description:         form.Fields["description"],
		DeliveryType:        form.Fields["delivery_type"],
		SpecialInstructions: form.Fields["special_instructions"],
		Files:               form.Files,
	})
	if err != nil {
		if services.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, common.ErrUnknownClient) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		h.log.Error(r.Context(), "requests-with-upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create request and upload data")
		return
	}

	writeJSON(w, http.StatusOK, intakeResponse{
		Message:   "Annotation request created successfully.",
		RequestID: res.RequestID,
		ProjectID: res.ProjectID,
	})
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
