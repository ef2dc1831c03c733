package app

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/felixbrock/chartlint/internal/domain"
)

type ImageRepo interface {
	Save(img *domain.Image) error
}

const maxMemory = 1 << 20

// readSubmission parses the form into an artifact. It accepts exactly one of
// the "code" field or the "image" file.
func readSubmission(r *http.Request) (string, *domain.Image, error) {
	err := r.ParseMultipartForm(maxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", nil, err
	}

	code := strings.TrimSpace(r.FormValue("code"))

	file, header, err := r.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return "", nil, err
	}
	imageProvided := err == nil && header.Filename != ""
	if file != nil && (code != "" || !imageProvided) {
		file.Close()
	}

	if code != "" && imageProvided {
		return "", nil, &domain.ValidationError{Msg: domain.MsgBothInputs}
	}
	if code == "" && !imageProvided {
		return "", nil, &domain.ValidationError{Msg: domain.MsgNoInput}
	}
	if code != "" {
		return code, nil, nil
	}

	img, err := readImage(file, header)
	if err != nil {
		return "", nil, err
	}
	return "", img, nil
}

func readImage(file multipart.File, header *multipart.FileHeader) (*domain.Image, error) {
	data, err := Read(file)
	if err != nil {
		return nil, err
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, &domain.ValidationError{Msg: "Uploaded file is not an image"}
	}

	return &domain.Image{Filename: header.Filename, MimeType: mimeType, Data: data}, nil
}

// submit validates the request, stores an uploaded image and lints the chart.
func (a App) submit(r *http.Request, id string) (string, *domain.Critique, error) {
	code, img, err := readSubmission(r)
	if err != nil {
		return code, nil, err
	}

	artifact := domain.CodeArtifact(code)
	if img != nil {
		if err = a.ImageRepo.Save(img); err != nil {
			return code, nil, err
		}
		artifact = domain.ImageArtifact(*img)
	}

	critique, err := a.Linter.Lint(r.Context(), id, artifact)
	return code, critique, err
}
