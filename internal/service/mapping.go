package service

import "showcase/internal/models"

func (s *ProjectService) toSimple(p models.Project) models.ProjectSimpleResponse {
	return models.ProjectSimpleResponse{
		ID:        p.ID,
		Title:     p.Title,
		MainImage: s.images.MasterURL(p.MainImage),
		Owner:     p.Owner.Username,
		Likes:     p.Likes,
		Visits:    p.Visits,
		CreatedOn: p.CreatedAt,
	}
}

func (s *ProjectService) toSimpleList(projects []models.Project) []models.ProjectSimpleResponse {
	out := make([]models.ProjectSimpleResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, s.toSimple(p))
	}
	return out
}

func (s *ProjectService) toDetail(p *models.Project) *models.ProjectResponse {
	resp := &models.ProjectResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		RepositoryURL: p.RepositoryURL,
		LiveDemoURL:   p.LiveDemoURL,
		MainImage:     s.images.MasterURL(p.MainImage),
		Owner:         p.Owner.Username,
		Collaborators: usernames(p.Collaborators),
		Tags:          tagNames(p.Tags),
		Images:        make([]models.ImageResponse, 0, len(p.Images)),
		Likes:         p.Likes,
		Visits:        p.Visits,
		Flags:         p.Flags,
		CreatedOn:     p.CreatedAt,
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, models.ImageResponse{
			URLPath:      img.URLPath,
			URL:          s.images.MasterURL(img.URLPath),
			ThumbnailURL: s.images.ThumbnailURL(img.URLPath),
			Extension:    img.Extension,
			OriginalName: img.OriginalName,
			Width:        img.Width,
			Height:       img.Height,
			IsMain:       img.IsMain,
		})
	}
	return resp
}

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func tagNames(tags []models.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}
