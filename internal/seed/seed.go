// Package seed populates the database with demo users, projects and
// interactions. It is meant for development and tests only.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"
	"time"

	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plain-text password of every seeded user.
const Password = "Password123!"

var techTags = []string{
	"go", "rust", "typescript", "react", "angular", "vue", "postgres", "redis",
	"docker", "kubernetes", "graphql", "grpc", "machine-learning", "game", "cli",
	"mobile", "web", "api", "devops", "open-source",
}

// Options controls how much data is generated.
type Options struct {
	NumUsers    int
	NumProjects int
	ShouldClean bool
	// Seed makes the generated data reproducible. Zero picks a time-based seed.
	Seed int64
	// MaxDays spreads project creation dates over the given number of past days.
	MaxDays int
	// FastHash uses the minimum bcrypt cost.
	FastHash bool
}

// Seeder generates demo data through the same repositories and image
// pipeline the API uses.
type Seeder struct {
	db           *gorm.DB
	opts         Options
	faker        *gofakeit.Faker
	users        repository.UserRepository
	tags         repository.TagRepository
	projects     repository.ProjectRepository
	interactions repository.InteractionRepository
	visits       repository.VisitRepository
	images       *service.ImageService
}

// NewSeeder creates a Seeder bound to db. Images are processed and written by images.
func NewSeeder(db *gorm.DB, images *service.ImageService, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Seeder{
		db:           db,
		opts:         opts,
		faker:        gofakeit.New(seed),
		users:        repository.NewUserRepository(db),
		tags:         repository.NewTagRepository(db),
		projects:     repository.NewProjectRepository(db),
		interactions: repository.NewInteractionRepository(db),
		visits:       repository.NewVisitRepository(db),
		images:       images,
	}
}

// Run clears the database when requested and seeds users, projects and engagement.
func (s *Seeder) Run(ctx context.Context) error {
	log.Printf("🌱 Seeding %d users and %d projects...", s.opts.NumUsers, s.opts.NumProjects)

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	projects, err := s.SeedProjects(ctx, users, s.opts.NumProjects)
	if err != nil {
		return fmt.Errorf("failed to create projects: %w", err)
	}
	log.Printf("✓ %d projects created", len(projects))

	if err := s.SeedEngagement(ctx, users, projects); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Println("✓ likes, flags and visits created")
	return nil
}

// ClearAll removes every seeded row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, table := range []string{
		"visits", "likes", "flags", "project_tags", "project_collaborators", "images", "projects", "tags", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedUsers creates n users sharing Password.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]models.User, error) {
	cost := bcrypt.DefaultCost
	if s.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), cost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := range n {
		name := models.NormalizeUsername(fmt.Sprintf("%s%d", sanitize(s.faker.FirstName()), i+1))
		user := models.User{
			Username:  name,
			Email:     name + "@" + sanitize(s.faker.DomainName()),
			Password:  string(hash),
			AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", name, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedProjects creates n projects owned by random users, each with one or two
// generated images, a few tags and up to two collaborators.
func (s *Seeder) SeedProjects(ctx context.Context, users []models.User, n int) ([]models.Project, error) {
	if len(users) == 0 {
		return nil, nil
	}

	projects := make([]models.Project, 0, n)
	for i := range n {
		owner := users[s.faker.Number(0, len(users)-1)]

		tags, err := s.tags.FindOrCreate(ctx, s.pickTags())
		if err != nil {
			return nil, err
		}

		raws := make([]models.RawImage, 0, 2)
		for j := range s.faker.Number(1, 2) {
			content, err := s.placeholderImage()
			if err != nil {
				return nil, err
			}
			raws = append(raws, models.RawImage{
				OriginalName: fmt.Sprintf("image-%d-%d.png", i+1, j+1),
				Extension:    "png",
				Content:      content,
			})
		}
		processed, err := s.images.Process(ctx, raws)
		if err != nil {
			return nil, err
		}
		if err := s.images.Persist(ctx, processed); err != nil {
			return nil, err
		}

		project := models.Project{
			Title:         s.faker.AppName() + " " + s.faker.HackerNoun(),
			Description:   s.faker.Paragraph(1, 3, 12, " "),
			RepositoryURL: "https://github.com/" + owner.Username + "/" + sanitize(s.faker.AppName()),
			LiveDemoURL:   s.faker.URL(),
			OwnerID:       owner.ID,
			MainImage:     processed[0].URLPath,
			Collaborators: s.pickCollaborators(users, owner.ID),
			Tags:          tags,
			CreatedAt:     s.pastTime(),
		}
		for k, img := range processed {
			project.Images = append(project.Images, models.Image{
				OriginalName: img.OriginalName,
				Extension:    img.Extension,
				URLPath:      img.URLPath,
				Width:        img.Width,
				Height:       img.Height,
				Position:     k,
				IsMain:       k == 0,
			})
		}

		if err := s.projects.Create(ctx, &project); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// SeedEngagement adds likes, occasional flags and a spread of visits.
func (s *Seeder) SeedEngagement(ctx context.Context, users []models.User, projects []models.Project) error {
	for _, p := range projects {
		for _, u := range users {
			if u.ID == p.OwnerID {
				continue
			}
			if s.faker.Number(1, 100) <= 35 {
				if _, err := s.interactions.Add(ctx, models.InteractionLike, p.ID, u.ID); err != nil {
					return err
				}
			}
			if s.faker.Number(1, 100) <= 3 {
				if _, err := s.interactions.Add(ctx, models.InteractionFlag, p.ID, u.ID); err != nil {
					return err
				}
			}
		}

		for range s.faker.Number(0, 25) {
			var visitor *uint
			if len(users) > 0 && s.faker.Bool() {
				id := users[s.faker.Number(0, len(users)-1)].ID
				visitor = &id
			}
			if err := s.visits.Record(ctx, p.ID, visitor); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) pickTags() []string {
	count := s.faker.Number(1, 4)
	picked := make([]string, 0, count)
	seen := make(map[string]bool, count)
	for len(picked) < count {
		tag := techTags[s.faker.Number(0, len(techTags)-1)]
		if !seen[tag] {
			seen[tag] = true
			picked = append(picked, tag)
		}
	}
	return picked
}

func (s *Seeder) pickCollaborators(users []models.User, ownerID uint) []models.User {
	var out []models.User
	seen := map[uint]bool{ownerID: true}
	for range s.faker.Number(0, 2) {
		u := users[s.faker.Number(0, len(users)-1)]
		if !seen[u.ID] {
			seen[u.ID] = true
			out = append(out, u)
		}
	}
	return out
}

func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back).UTC()
}

// placeholderImage renders a two-colour gradient PNG.
func (s *Seeder) placeholderImage() ([]byte, error) {
	w, h := 640, 400
	from := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}
	to := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		c := color.RGBA{
			R: lerp(from.R, to.R, x, w),
			G: lerp(from.G, to.G, x, w),
			B: lerp(from.B, to.B, x, w),
			A: 255,
		}
		for y := range h {
			img.SetRGBA(x, y, c)
		}
	}

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lerp(a, b uint8, i, n int) uint8 {
	return uint8(int(a) + (int(b)-int(a))*i/n)
}

// sanitize lower-cases s and keeps only ASCII letters, digits and dots.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
