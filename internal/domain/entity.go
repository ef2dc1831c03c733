package domain

import "time"

// Artifact is the chart a user submitted. Exactly one of Code or Image is set.
type Artifact struct {
	Code  string
	Image *Image
}

type Image struct {
	Filename string
	MimeType string
	Data     []byte
	// Url is where the stored copy is served from, empty until stored.
	Url string
}

func CodeArtifact(code string) Artifact {
	return Artifact{Code: code}
}

func ImageArtifact(img Image) Artifact {
	return Artifact{Image: &img}
}

func (a Artifact) IsImage() bool {
	return a.Image != nil
}

type Critique struct {
	Id string `json:"id"`
	// Label is the classifier answer, Category the catalog key it resolved to.
	Label    string    `json:"label"`
	Category Category  `json:"category"`
	Text     string    `json:"critique"`
	ImageUrl string    `json:"imageUrl,omitempty"`
	Created  time.Time `json:"created"`
}
