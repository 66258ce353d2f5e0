package models

import "time"

// ProjectSimpleResponse is the list/search shape of a project.
type ProjectSimpleResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	MainImage string    `json:"mainImage"`
	Owner     string    `json:"owner"`
	Likes     int64     `json:"likes"`
	Visits    int64     `json:"visits"`
	CreatedOn time.Time `json:"createdOn"`
}

// ProjectResponse is the detail shape of a project. IsLiked and IsFlagged are
// relative to the viewer and false for anonymous callers.
type ProjectResponse struct {
	ID            uint            `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	RepositoryURL string          `json:"repositoryUrl"`
	LiveDemoURL   string          `json:"liveDemoUrl"`
	MainImage     string          `json:"mainImage"`
	Owner         string          `json:"owner"`
	Collaborators []string        `json:"collaborators"`
	Tags          []string        `json:"tags"`
	Images        []ImageResponse `json:"images"`
	Likes         int64           `json:"likes"`
	Visits        int64           `json:"visits"`
	Flags         int64           `json:"flags"`
	CreatedOn     time.Time       `json:"createdOn"`
	IsLiked       bool            `json:"isLiked"`
	IsFlagged     bool            `json:"isFlagged"`
}

// ImageResponse describes a stored project image.
type ImageResponse struct {
	URLPath      string `json:"urlPath"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Extension    string `json:"extension"`
	OriginalName string `json:"originalName"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	IsMain       bool   `json:"isMain"`
}

// PostProjectResponse is returned after a project is created.
type PostProjectResponse struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	MainImage     string   `json:"mainImage"`
	Collaborators []string `json:"collaborators"`
	Tags          []string `json:"tags"`
}

// AuthResponse is returned by the account endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}
