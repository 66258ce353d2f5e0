package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"showcase/internal/models"
	"showcase/internal/service"
	"showcase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionToggles(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	project := testutil.CreateProject(t, env.db, owner, "toggled")
	token := env.token(t, bob)

	post := func(action string) envelope {
		resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/Projects/%s/%d", action, project.ID), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[envelope](t, resp)
	}
	assertSuccess := func(body envelope) {
		t.Helper()
		assert.True(t, body.Success)
		assert.Equal(t, "null", string(body.Data))
		assert.Nil(t, body.Message)
	}
	assertRejected := func(body envelope, message string) {
		t.Helper()
		assert.False(t, body.Success)
		require.NotNil(t, body.Message)
		assert.Equal(t, message, *body.Message)
	}

	t.Run("like twice", func(t *testing.T) {
		assertSuccess(post("Like"))
		assertRejected(post("Like"), service.MsgAlreadyLiked)
	})

	t.Run("dislike twice", func(t *testing.T) {
		assertSuccess(post("Dislike"))
		assertRejected(post("Dislike"), service.MsgNotLiked)
	})

	t.Run("flag and unflag independently of likes", func(t *testing.T) {
		assertSuccess(post("Like"))
		assertSuccess(post("Flag"))
		assertRejected(post("Flag"), service.MsgAlreadyFlagged)
		assertSuccess(post("Unflag"))
		assertRejected(post("Unflag"), service.MsgNotFlagged)

		var likes int64
		require.NoError(t, env.db.Model(&models.Like{}).Where("project_id = ?", project.ID).Count(&likes).Error)
		assert.Equal(t, int64(1), likes)
	})
}

func TestInteractionToggles_Errors(t *testing.T) {
	env := newTestEnv(t)
	bob := testutil.CreateUser(t, env.db, "bob")
	token := env.token(t, bob)

	for _, action := range []string{"Like", "Dislike", "Flag", "Unflag", "Visit"} {
		t.Run(action, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/Projects/"+action+"/4242", nil, token)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)

			resp = env.do(t, http.MethodPost, "/api/Projects/"+action+"/0", nil, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			resp = env.do(t, http.MethodPost, "/api/Projects/"+action+"/1", nil, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestConcurrentLikes(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	project := testutil.CreateProject(t, env.db, owner, "contested")
	token := env.token(t, bob)
	path := fmt.Sprintf("/api/Projects/Like/%d", project.ID)

	const attempts = 8
	results := make([]bool, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := env.app.Test(req, -1)
			if err != nil {
				return
			}
			defer func() { _ = resp.Body.Close() }()
			var body envelope
			if json.NewDecoder(resp.Body).Decode(&body) == nil {
				results[i] = body.Success
			}
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, success := range results {
		if success {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestRecordVisit(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "alice")
	project := testutil.CreateProject(t, env.db, owner, "visited")
	token := env.token(t, owner)
	path := fmt.Sprintf("/api/Projects/Visit/%d", project.ID)

	for range 3 {
		resp := env.do(t, http.MethodPost, path, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decode[envelope](t, resp).Success)
	}

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/Projects/%d", project.ID), nil, "")
	assert.Equal(t, int64(3), decodeData[models.ProjectResponse](t, resp).Visits)

	var visits []models.Visit
	require.NoError(t, env.db.Where("project_id = ?", project.ID).Find(&visits).Error)
	require.Len(t, visits, 3)
	require.NotNil(t, visits[0].UserID)
	assert.Equal(t, owner.ID, *visits[0].UserID)
}
