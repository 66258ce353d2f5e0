package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"showcase/internal/models"
	"showcase/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRepoStub is a stub for repository.ProjectRepository.
type projectRepoStub struct {
	createFn      func(context.Context, *models.Project) error
	existsFn      func(context.Context, uint) (bool, error)
	getByIDFn     func(context.Context, uint) (*models.Project, error)
	latestFn      func(context.Context, int) ([]models.Project, error)
	mostPopularFn func(context.Context, int) ([]models.Project, error)
	likedByUserFn func(context.Context, uint) ([]models.Project, error)
	searchFn      func(context.Context, query.Options) ([]models.Project, *int64, error)
}

func (s *projectRepoStub) Create(ctx context.Context, p *models.Project) error {
	return s.createFn(ctx, p)
}
func (s *projectRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *projectRepoStub) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	return s.getByIDFn(ctx, id)
}
func (s *projectRepoStub) Latest(ctx context.Context, limit int) ([]models.Project, error) {
	return s.latestFn(ctx, limit)
}
func (s *projectRepoStub) MostPopular(ctx context.Context, limit int) ([]models.Project, error) {
	return s.mostPopularFn(ctx, limit)
}
func (s *projectRepoStub) LikedByUser(ctx context.Context, userID uint) ([]models.Project, error) {
	return s.likedByUserFn(ctx, userID)
}
func (s *projectRepoStub) Search(ctx context.Context, opts query.Options) ([]models.Project, *int64, error) {
	return s.searchFn(ctx, opts)
}

func noopProjectRepo() *projectRepoStub {
	return &projectRepoStub{
		createFn: func(_ context.Context, p *models.Project) error {
			p.ID = 1
			return nil
		},
		existsFn:      func(_ context.Context, _ uint) (bool, error) { return true, nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Project, error) { return &models.Project{ID: id}, nil },
		latestFn:      func(_ context.Context, _ int) ([]models.Project, error) { return nil, nil },
		mostPopularFn: func(_ context.Context, _ int) ([]models.Project, error) { return nil, nil },
		likedByUserFn: func(_ context.Context, _ uint) ([]models.Project, error) { return nil, nil },
		searchFn:      func(_ context.Context, _ query.Options) ([]models.Project, *int64, error) { return nil, nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByUsernameFn  func(context.Context, string) (*models.User, error)
	getByUsernamesFn func(context.Context, []string) ([]models.User, error)
	createFn         func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	return s.getByUsernamesFn(ctx, usernames)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

// usersNamed returns a user repo stub knowing exactly the given usernames.
func usersNamed(names ...string) *userRepoStub {
	known := make(map[string]models.User, len(names))
	for i, n := range names {
		known[n] = models.User{ID: uint(i + 10), Username: n}
	}
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
		getByUsernameFn: func(_ context.Context, name string) (*models.User, error) {
			u, ok := known[models.NormalizeUsername(name)]
			if !ok {
				return nil, models.NewNotFoundError("User", name)
			}
			return &u, nil
		},
		getByUsernamesFn: func(_ context.Context, names []string) ([]models.User, error) {
			var out []models.User
			for _, n := range names {
				if u, ok := known[n]; ok {
					out = append(out, u)
				}
			}
			return out, nil
		},
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 99
			return nil
		},
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	findOrCreateFn func(context.Context, []string) ([]models.Tag, error)
}

func (s *tagRepoStub) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	return s.findOrCreateFn(ctx, names)
}

func echoTagRepo() *tagRepoStub {
	return &tagRepoStub{
		findOrCreateFn: func(_ context.Context, names []string) ([]models.Tag, error) {
			tags := make([]models.Tag, 0, len(names))
			// Reverse order so callers must restore the input order.
			for i := len(names) - 1; i >= 0; i-- {
				tags = append(tags, models.Tag{ID: uint(i + 1), Name: names[i]})
			}
			return tags, nil
		},
	}
}

type interactionKey struct {
	kind      models.InteractionKind
	projectID uint
	userID    uint
}

// memoryInteractions is an in-memory repository.InteractionRepository.
type memoryInteractions struct {
	mu   sync.Mutex
	rows map[interactionKey]bool
	err  error
}

func newMemoryInteractions() *memoryInteractions {
	return &memoryInteractions{rows: make(map[interactionKey]bool)}
}

func (m *memoryInteractions) Exists(_ context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[interactionKey{kind, projectID, userID}], m.err
}

func (m *memoryInteractions) Add(_ context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	k := interactionKey{kind, projectID, userID}
	if m.rows[k] {
		return false, nil
	}
	m.rows[k] = true
	return true, nil
}

func (m *memoryInteractions) Remove(_ context.Context, kind models.InteractionKind, projectID, userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	k := interactionKey{kind, projectID, userID}
	if !m.rows[k] {
		return false, nil
	}
	delete(m.rows, k)
	return true, nil
}

// visitRepoStub is a stub for repository.VisitRepository.
type visitRepoStub struct {
	recordFn func(context.Context, uint, *uint) error
}

func (s *visitRepoStub) Record(ctx context.Context, projectID uint, userID *uint) error {
	return s.recordFn(ctx, projectID, userID)
}

var errDB = errors.New("database unavailable")

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// assertRuleViolation asserts err is a rule violation carrying message.
func assertRuleViolation(t *testing.T, err error, message string) {
	t.Helper()
	assertCode(t, err, models.CodeRuleViolation)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, message, appErr.Message)
}
