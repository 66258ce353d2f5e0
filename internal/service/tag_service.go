package service

import (
	"context"
	"fmt"
	"regexp"

	"showcase/internal/models"
	"showcase/internal/repository"
)

const (
	maxTagLength = 50
	maxTags      = 20
)

var tagPattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .+#_-]*$`)

type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// TagsFromCommaSeparatedValues resolves a comma-separated tag list, creating
// tags that do not exist yet. The result keeps the order of the input.
func (s *TagService) TagsFromCommaSeparatedValues(ctx context.Context, csv string) ([]models.Tag, error) {
	names := splitCommaSeparated(csv)
	if len(names) == 0 {
		return nil, models.NewValidationError("At least one tag is required")
	}
	if len(names) > maxTags {
		return nil, models.NewValidationError(fmt.Sprintf("At most %d tags are allowed", maxTags))
	}
	for _, name := range names {
		if len(name) > maxTagLength || !tagPattern.MatchString(name) {
			return nil, models.NewValidationError(fmt.Sprintf("Invalid tag %q", name))
		}
	}

	tags, err := s.tags.FindOrCreate(ctx, names)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]models.Tag, len(tags))
	for _, t := range tags {
		byName[t.Name] = t
	}
	ordered := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := byName[name]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}
