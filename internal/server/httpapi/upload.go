package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/annotrack/internal/filex"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
	"github.com/google/uuid"
)

const maxFieldLength = 1 << 20

var errNotMultipart = errors.New("expected a multipart/form-data body")

// errUnexpectedFile is returned for a file part outside the files field.
var errUnexpectedFile = errors.New("unexpected file field")

// isFilesField accepts both the plain and the array-style field name
// browsers and form libraries send for multiple files.
func isFilesField(name string) bool {
	return name == "files" || name == "files[]"
}

// uploadForm is a parsed intake submission with its files already staged.
type uploadForm struct {
	Fields map[string]string
	Files  []models.UploadedFile
}

// stageUploads streams the multipart body of r. Text fields are collected;
// every part of the "files" (or "files[]") field is written to stagingDir
// under a random name. A file sent under any other field fails with
// errUnexpectedFile. On error the files staged so far are removed and form
// is nil.
func stageUploads(r *http.Request, stagingDir string) (form *uploadForm, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotMultipart, err)
	}

	dir, err := filex.EnsureDir(stagingDir)
	if err != nil {
		return nil, err
	}

	form = &uploadForm{Fields: map[string]string{}}
	defer func() {
		if err != nil {
			removeStaged(form.Files)
			form = nil
		}
	}()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return form, err
		}

		if part.FileName() == "" {
			b, err := io.ReadAll(io.LimitReader(part, maxFieldLength+1))
			part.Close()
			if err != nil {
				return form, err
			}
			if len(b) > maxFieldLength {
				return form, fmt.Errorf("field %q is too long", part.FormName())
			}
			form.Fields[part.FormName()] = string(b)
			continue
		}

		if !isFilesField(part.FormName()) {
			part.Close()
			return form, fmt.Errorf("%w %q", errUnexpectedFile, part.FormName())
		}

		f, err := stagePart(dir, part)
		part.Close()
		if err != nil {
			return form, err
		}
		form.Files = append(form.Files, f)
	}
}

func stagePart(dir string, part *multipart.Part) (models.UploadedFile, error) {
	path := filepath.Join(dir, uuid.NewString())

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o660)
	if err != nil {
		return models.UploadedFile{}, err
	}

	n, err := io.Copy(out, part)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return models.UploadedFile{}, err
	}

	return models.UploadedFile{OriginalName: part.FileName(), StagingPath: path, Size: n}, nil
}

// removeStaged deletes whatever is still left of files in staging.
func removeStaged(files []models.UploadedFile) []error {
	var errs []error
	for _, f := range files {
		if err := filex.RemoveIfExists(f.StagingPath); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
