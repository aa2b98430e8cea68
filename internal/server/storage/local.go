package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/annotrack/internal/filex"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
)

// LocalStore keeps files on the local filesystem under
// <root>/<project id>/<original name>.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// ProjectDir returns the directory holding projectID's files.
func (s *LocalStore) ProjectDir(projectID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(projectID, 10))
}

// Relocate moves every staged file into the project directory, creating it
// if needed. A file with the same name as an existing one replaces it.
// Cancellation of ctx is checked between files.
func (s *LocalStore) Relocate(ctx context.Context, projectID int64, files []models.UploadedFile) error {
	dir, err := filex.EnsureDir(s.ProjectDir(projectID))
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, err := SafeName(f.OriginalName)
		if err != nil {
			return err
		}

		if err := filex.MoveFile(f.StagingPath, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("relocate %s: %w", name, err)
		}
	}

	return nil
}

// Remove deletes the project directory and everything in it.
func (s *LocalStore) Remove(ctx context.Context, projectID int64) error {
	if err := os.RemoveAll(s.ProjectDir(projectID)); err != nil {
		return fmt.Errorf("remove project %d: %w", projectID, err)
	}
	return nil
}
