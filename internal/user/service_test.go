package user_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/user"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

type mockUserRepository struct {
	mu    sync.Mutex
	users map[int64]*user.User

	listError   error
	updateError error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: map[int64]*user.User{
			1: {ID: 1, Name: "Ann", Email: "ann@example.com", Role: coreuser.RoleUser, IsActive: true},
			2: {ID: 2, Name: "Bob", Email: "bob@example.com", Role: coreuser.RoleUser, IsActive: true},
			9: {ID: 9, Name: "Admin", Email: "admin@example.com", Role: coreuser.RoleAdmin, IsActive: true},
		},
	}
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return m.updateError
	}
	stored, ok := m.users[u.ID]
	if !ok {
		return internal.ErrRecordNotFound
	}
	for id, other := range m.users {
		if id != u.ID && other.Email == u.Email {
			return internal.ErrDuplicateEmail
		}
	}
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Photo = u.Photo
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return internal.ErrRecordNotFound
	}
	u.IsActive = active
	u.UpdatedAt = updatedAt
	return nil
}

type memoryPhotoStore struct {
	saved   []string
	deleted []string
	err     error
}

func (s *memoryPhotoStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	p := user.PublicPrefix + "photo-" + string(rune('a'+len(s.saved))) + ".png"
	s.saved = append(s.saved, p)
	return p, nil
}

func (s *memoryPhotoStore) Delete(ctx context.Context, publicPath string) error {
	s.deleted = append(s.deleted, publicPath)
	return nil
}

func strPtr(s string) *string { return &s }

var (
	ann      = coreuser.Caller{ID: 1, Email: "ann@example.com", Role: coreuser.RoleUser, Active: true}
	admin    = coreuser.Caller{ID: 9, Email: "admin@example.com", Role: coreuser.RoleAdmin, Active: true}
	inactive = coreuser.Caller{ID: 9, Email: "admin@example.com", Role: coreuser.RoleAdmin, Active: false}
)

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		repo    *mockUserRepository
		photos  *memoryPhotoStore
		service *user.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository()
		photos = &memoryPhotoStore{}
		service = user.NewService(repo, photos, logger.Discard())
	})

	Describe("GetProfile", func() {
		It("returns the caller's profile", func() {
			u, err := service.GetProfile(ctx, ann)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Ann"))
		})

		It("reports deleted accounts", func() {
			_, err := service.GetProfile(ctx, coreuser.Caller{ID: 77, Role: coreuser.RoleUser, Active: true})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrCodeUserNotFound))
		})
	})

	Describe("UpdateProfile", func() {
		It("changes name and normalized email", func() {
			u, err := service.UpdateProfile(ctx, ann, user.UpdateProfileDTO{Name: strPtr(" Annie "), Email: strPtr("Annie@Example.com")})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Annie"))
			Expect(u.Email).To(Equal("annie@example.com"))
			Expect(u.Role).To(Equal(coreuser.RoleUser))
			Expect(u.IsActive).To(BeTrue())
		})

		It("refuses an email owned by someone else", func() {
			_, err := service.UpdateProfile(ctx, ann, user.UpdateProfileDTO{Email: strPtr("bob@example.com")})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeConflict))
		})

		It("requires at least one field", func() {
			_, err := service.UpdateProfile(ctx, ann, user.UpdateProfileDTO{})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrCodeEmptyUpdate))
		})

		It("rejects a blank name", func() {
			_, err := service.UpdateProfile(ctx, ann, user.UpdateProfileDTO{Name: strPtr("  ")})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("UpdatePhoto", func() {
		It("stores the photo and removes the previous one", func() {
			first, err := service.UpdatePhoto(ctx, ann, strings.NewReader("one"))
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Photo).NotTo(BeNil())

			second, err := service.UpdatePhoto(ctx, ann, strings.NewReader("two"))
			Expect(err).NotTo(HaveOccurred())
			Expect(*second.Photo).NotTo(Equal(*first.Photo))
			Expect(photos.deleted).To(Equal([]string{*first.Photo}))
		})

		It("passes validation errors from the store through", func() {
			photos.err = internal.NewValidationFieldError("photo", "Only image files are allowed", internal.ErrCodeValidationFailed)
			_, err := service.UpdatePhoto(ctx, ann, strings.NewReader("text"))
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})

		It("discards the new photo when the profile write fails", func() {
			repo.updateError = errors.New("disk full")
			_, err := service.UpdatePhoto(ctx, ann, strings.NewReader("one"))
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeStoreUnavailable))
			Expect(photos.deleted).To(Equal(photos.saved))
		})
	})

	Describe("ListUsers", func() {
		It("lists every account for admins", func() {
			resp, err := service.ListUsers(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Count).To(Equal(3))
			Expect(resp.Users[0].ID).To(Equal(int64(1)))
		})

		It("is refused to regular users", func() {
			_, err := service.ListUsers(ctx, ann)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode("not-admin")))
		})

		It("is refused to inactive admins", func() {
			_, err := service.ListUsers(ctx, inactive)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode("inactive-account")))
		})
	})

	Describe("Deactivate", func() {
		It("disables the account and keeps its role", func() {
			u, err := service.Deactivate(ctx, admin, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())
			Expect(u.Role).To(Equal(coreuser.RoleUser))

			stored, err := repo.GetByID(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsActive).To(BeFalse())
		})

		It("reports unknown users", func() {
			_, err := service.Deactivate(ctx, admin, 404)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrCodeUserNotFound))
		})

		It("is refused to regular users", func() {
			_, err := service.Deactivate(ctx, ann, 2)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode("not-admin")))

			stored, _ := repo.GetByID(ctx, 2)
			Expect(stored.IsActive).To(BeTrue())
		})
	})
})
