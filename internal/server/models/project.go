package models

import "time"

// Project statuses.
const (
	ProjectStatusAnnotationStarted = "Annotation_Started"
	ProjectStatusCompleted         = "Completed"
)

// Project is the unit of work derived from exactly one Request.
type Project struct {
	ID                   int64
	RequestID            int64
	ProjectManagerID     *int64
	Status               string
	CompletionPercentage int
	CreatedAt            time.Time
}

// ProjectView is a Project joined with its manager's name, if any.
type ProjectView struct {
	ID                   int64     `json:"id"`
	RequestID            int64     `json:"request_id"`
	ProjectManagerID     *int64    `json:"project_manager_id"`
	ProjectManagerName   *string   `json:"project_manager_name"`
	Status               string    `json:"status"`
	CompletionPercentage int       `json:"completion_percentage"`
	CreatedAt            time.Time `json:"created_at"`
}
