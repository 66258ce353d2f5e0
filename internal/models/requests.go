package models

import (
	"encoding/base64"
	"strings"
)

// ProjectRequest is the payload accepted when creating a project.
// Collaborators and Tags are comma-separated and resolved server-side.
type ProjectRequest struct {
	Title         string        `json:"title" validate:"required,min=3,max=100"`
	Description   string        `json:"description" validate:"required,min=10,max=5000"`
	RepositoryURL string        `json:"repositoryUrl" validate:"omitempty,url,max=500"`
	LiveDemoURL   string        `json:"liveDemoUrl" validate:"omitempty,url,max=500"`
	Collaborators string        `json:"collaborators" validate:"max=1000"`
	Tags          string        `json:"tags" validate:"required,max=500"`
	Images        []FileRequest `json:"images" validate:"required,min=1,max=10,dive"`
	MainImage     string        `json:"mainImage" validate:"required,max=255"`
}

// FileRequest is a single uploaded file encoded as base64.
type FileRequest struct {
	OriginalName  string `json:"originalName" validate:"required,max=255"`
	Base64Content string `json:"base64Content" validate:"required"`
	FileExtension string `json:"fileExtension" validate:"required,oneof=jpg jpeg png gif webp JPG JPEG PNG GIF WEBP"`
}

// RawImage is an undecoded image as received from a client.
type RawImage struct {
	OriginalName string
	Extension    string
	Content      []byte
}

// ToRawImage decodes the base64 payload. Data-URL prefixes are tolerated.
func (f FileRequest) ToRawImage() (RawImage, error) {
	payload := f.Base64Content
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return RawImage{}, NewValidationError("Image " + f.OriginalName + " is not valid base64")
	}
	return RawImage{
		OriginalName: f.OriginalName,
		Extension:    strings.ToLower(f.FileExtension),
		Content:      content,
	}, nil
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

// Normalize trims the input and lower-cases the username and email.
func (r *RegisterRequest) Normalize() {
	r.Username = NormalizeUsername(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// LoginRequest is the payload for account login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
