package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"showcase/internal/models"
	"showcase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedItems struct {
	Items []map[string]any `json:"items"`
	Count *int64           `json:"count"`
}

func createRequest(t *testing.T) models.ProjectRequest {
	return models.ProjectRequest{
		Title:         "Showcase",
		Description:   "A showcase of projects written in Go.",
		RepositoryURL: "https://example.com/showcase",
		Collaborators: "bob,carol",
		Tags:          "go,web",
		MainImage:     "cover.png",
		Images: []models.FileRequest{
			{OriginalName: "cover.png", FileExtension: "png", Base64Content: testutil.TinyPNGBase64(t, 8, 6)},
			{OriginalName: "screen.png", FileExtension: "png", Base64Content: testutil.TinyPNGBase64(t, 4, 4)},
		},
	}
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	testutil.CreateUser(t, env.db, "bob")
	testutil.CreateUser(t, env.db, "carol")

	resp := env.do(t, http.MethodPost, "/api/Projects", createRequest(t), env.token(t, alice))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeData[models.PostProjectResponse](t, resp)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Showcase", created.Title)
	assert.Equal(t, []string{"bob", "carol"}, created.Collaborators)
	assert.Equal(t, []string{"go", "web"}, created.Tags)
	assert.True(t, strings.HasSuffix(created.MainImage, ".jpg"))
	assert.Len(t, env.store.Keys(), 4)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/Projects/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeData[models.ProjectResponse](t, resp)
	assert.Equal(t, "alice", detail.Owner)
	assert.Equal(t, []string{"bob", "carol"}, detail.Collaborators)
	assert.Equal(t, []string{"go", "web"}, detail.Tags)
	require.Len(t, detail.Images, 2)
	assert.True(t, detail.Images[0].IsMain)
	assert.Equal(t, 8, detail.Images[0].Width)
	assert.Equal(t, created.MainImage, detail.MainImage)
}

func TestCreateProject_Rejected(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	testutil.CreateUser(t, env.db, "bob")
	testutil.CreateUser(t, env.db, "carol")
	token := env.token(t, alice)

	tests := []struct {
		name   string
		mutate func(*models.ProjectRequest)
		status int
		code   string
	}{
		{"missing title", func(r *models.ProjectRequest) { r.Title = "" }, http.StatusBadRequest, models.CodeValidation},
		{"bad repository url", func(r *models.ProjectRequest) { r.RepositoryURL = "not a url" }, http.StatusBadRequest, models.CodeValidation},
		{"no images", func(r *models.ProjectRequest) { r.Images = nil }, http.StatusBadRequest, models.CodeValidation},
		{"unsupported extension", func(r *models.ProjectRequest) { r.Images[1].FileExtension = "bmp" }, http.StatusBadRequest, models.CodeValidation},
		{"unknown collaborator", func(r *models.ProjectRequest) { r.Collaborators = "bob,nobody" }, http.StatusBadRequest, models.CodeValidation},
		{"main image not uploaded", func(r *models.ProjectRequest) { r.MainImage = "other.png" }, http.StatusBadRequest, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(t)
			tt.mutate(&req)

			resp := env.do(t, http.MethodPost, "/api/Projects", req, token)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[envelope](t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Project{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.store.Keys())
}

func TestCreateProject_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/Projects", createRequest(t), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateProject_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	testutil.CreateUser(t, env.db, "bob")
	testutil.CreateUser(t, env.db, "carol")
	env.store.FailPut = true

	resp := env.do(t, http.MethodPost, "/api/Projects", createRequest(t), env.token(t, alice))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, models.CodeDependency, decode[envelope](t, resp).Code)
}

func TestListLatestAndPopular(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	var projects []*models.Project
	for i := range 8 {
		projects = append(projects, testutil.CreateProject(t, env.db, owner, fmt.Sprintf("project-%02d", i)))
	}

	// Two likes on the oldest project outrank one visit anywhere else.
	fan := testutil.CreateUser(t, env.db, "bob")
	fanToken := env.token(t, fan)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/Projects/Like/%d", projects[0].ID), nil, fanToken).StatusCode)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/Projects/Visit/%d", projects[5].ID), nil, fanToken).StatusCode)

	resp := env.do(t, http.MethodGet, "/api/Projects", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	latest := decodeData[[]models.ProjectSimpleResponse](t, resp)
	require.Len(t, latest, 6)
	assert.Equal(t, projects[7].ID, latest[0].ID)

	resp = env.do(t, http.MethodGet, "/api/Projects/Popular", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	popular := decodeData[[]models.ProjectSimpleResponse](t, resp)
	require.Len(t, popular, 6)
	assert.Equal(t, projects[0].ID, popular[0].ID)
	assert.Equal(t, int64(1), popular[0].Likes)
	assert.Equal(t, projects[5].ID, popular[1].ID)
	assert.Equal(t, int64(1), popular[1].Visits)
}

func TestGetProject(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	viewer := testutil.CreateUser(t, env.db, "bob")
	project := testutil.CreateProject(t, env.db, owner, "detail", "go")
	path := fmt.Sprintf("/api/Projects/%d", project.ID)

	t.Run("anonymous", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		detail := decodeData[models.ProjectResponse](t, resp)
		assert.Equal(t, "detail", detail.Title)
		assert.False(t, detail.IsLiked)
		assert.False(t, detail.IsFlagged)
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, path, nil, "garbage")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, decodeData[models.ProjectResponse](t, resp).IsLiked)
	})

	t.Run("liked and flagged by viewer", func(t *testing.T) {
		token := env.token(t, viewer)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/Projects/Like/%d", project.ID), nil, token).StatusCode)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/Projects/Flag/%d", project.ID), nil, token).StatusCode)

		resp := env.do(t, http.MethodGet, path, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		detail := decodeData[models.ProjectResponse](t, resp)
		assert.True(t, detail.IsLiked)
		assert.True(t, detail.IsFlagged)
		assert.Equal(t, int64(1), detail.Likes)
		assert.Equal(t, int64(1), detail.Flags)

		// The owner has neither liked nor flagged it.
		resp = env.do(t, http.MethodGet, path, nil, env.token(t, owner))
		detail = decodeData[models.ProjectResponse](t, resp)
		assert.False(t, detail.IsLiked)
		assert.False(t, detail.IsFlagged)
	})

	t.Run("anonymous after viewer interactions", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		detail := decodeData[models.ProjectResponse](t, resp)
		assert.False(t, detail.IsLiked)
		assert.False(t, detail.IsFlagged)
		assert.Equal(t, int64(1), detail.Likes)
		assert.Equal(t, int64(1), detail.Flags)
	})

	t.Run("missing", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/Projects/9999", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, models.CodeNotFound, decode[envelope](t, resp).Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/Projects/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListLikedByUser(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	liked := testutil.CreateProject(t, env.db, owner, "liked")
	testutil.CreateProject(t, env.db, owner, "ignored")
	token := env.token(t, bob)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, fmt.Sprintf("/api/Projects/Like/%d", liked.ID), nil, token).StatusCode)

	t.Run("own list, any case", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/Projects/LikedProjects/BOB", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decodeData[[]models.ProjectSimpleResponse](t, resp)
		require.Len(t, list, 1)
		assert.Equal(t, liked.ID, list[0].ID)
	})

	t.Run("someone else's list", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/Projects/LikedProjects/alice", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[envelope](t, resp)
		assert.False(t, body.Success)
		require.NotNil(t, body.Message)
		assert.Equal(t, "You are not authorized to view this user's liked projects.", *body.Message)
	})

	t.Run("anonymous", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/Projects/LikedProjects/bob", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSearchProjects(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	for i := range 70 {
		tag := "web"
		if i%10 == 0 {
			tag = "go"
		}
		testutil.CreateProject(t, env.db, owner, fmt.Sprintf("project-%02d", i), tag)
	}

	search := func(t *testing.T, params url.Values) *http.Response {
		return env.do(t, http.MethodGet, "/api/Projects/Search?"+params.Encode(), nil, "")
	}

	t.Run("default page size", func(t *testing.T) {
		resp := search(t, url.Values{})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[pagedItems](t, resp)
		assert.Len(t, page.Items, 8)
		assert.Nil(t, page.Count)
		assert.Equal(t, "project-69", page.Items[0]["title"])
	})

	t.Run("top is clamped", func(t *testing.T) {
		resp := search(t, url.Values{"$top": {"1000"}, "$count": {"true"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[pagedItems](t, resp)
		assert.Len(t, page.Items, 64)
		require.NotNil(t, page.Count)
		assert.Equal(t, int64(70), *page.Count)
	})

	t.Run("count is taken before paging", func(t *testing.T) {
		resp := search(t, url.Values{
			"$filter": {"tag eq 'go'"},
			"$top":    {"2"},
			"$skip":   {"1"},
			"$count":  {"true"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[pagedItems](t, resp)
		assert.Len(t, page.Items, 2)
		require.NotNil(t, page.Count)
		assert.Equal(t, int64(7), *page.Count)
		assert.Equal(t, "project-50", page.Items[0]["title"])
	})

	t.Run("order and select", func(t *testing.T) {
		resp := search(t, url.Values{
			"$orderby": {"title asc"},
			"$select":  {"id,title"},
			"$top":     {"3"},
			"$filter":  {"startswith(title,'project-1')"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[pagedItems](t, resp)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "project-10", page.Items[0]["title"])
		assert.Len(t, page.Items[0], 2)
		assert.NotContains(t, page.Items[0], "owner")
	})

	t.Run("rejected directives", func(t *testing.T) {
		for _, params := range []url.Values{
			{"$top": {"-1"}},
			{"$top": {"ten"}},
			{"$skip": {"-5"}},
			{"$expand": {"owner"}},
			{"$orderby": {"description"}},
			{"$select": {"password"}},
			{"$filter": {"title eq 3"}},
			{"$filter": {"1 eq 1"}},
		} {
			resp := search(t, params)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, params.Encode())
			assert.Equal(t, models.CodeQueryValidation, decode[envelope](t, resp).Code)
		}
	})

	t.Run("plain parameters are ignored", func(t *testing.T) {
		resp := search(t, url.Values{"page": {"2"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
