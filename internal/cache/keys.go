package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	LatestProjectsKey  = "projects:latest"
	PopularProjectsKey = "projects:popular"
	ProjectKeyPrefix   = "project:%d"
)

const (
	ListTTL    = 1 * time.Minute
	ProjectTTL = 5 * time.Minute
)

// ProjectKey is the cache key for a project's viewer-independent detail.
func ProjectKey(projectID uint) string {
	return fmt.Sprintf(ProjectKeyPrefix, projectID)
}

// Invalidate removes the given keys. A nil client is a no-op.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateProject drops the detail entry and the lists that may contain the project.
func InvalidateProject(ctx context.Context, projectID uint) {
	Invalidate(ctx, ProjectKey(projectID), LatestProjectsKey, PopularProjectsKey)
}

// InvalidateLists drops the latest and popular lists.
func InvalidateLists(ctx context.Context) {
	Invalidate(ctx, LatestProjectsKey, PopularProjectsKey)
}
