package persistence

import (
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/felixbrock/chartlint/internal/domain"
)

// ImageRepo keeps uploaded chart images on disk under Dir, served at UrlPrefix.
// Files are named after the upload and a later upload of the same name
// replaces the earlier one.
type ImageRepo struct {
	Dir       string
	UrlPrefix string
}

func (r ImageRepo) Save(img *domain.Image) error {
	name := filepath.Base(img.Filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return errors.New("invalid image filename error")
	}

	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(r.Dir, name), img.Data, 0644); err != nil {
		return err
	}

	img.Url = path.Join(r.UrlPrefix, name)
	return nil
}
