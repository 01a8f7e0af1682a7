package expense_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// mockExpenseRepository keeps copies so callers cannot alias stored rows.
type mockExpenseRepository struct {
	mu       sync.Mutex
	expenses map[int64]*expense.Expense
	nextID   int64

	getError    error
	listError   error
	createError error

	// approveBeforeDelete simulates an approval landing between the
	// service's check and the delete statement.
	approveBeforeDelete bool
	lastFilter          expense.ListFilter
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		expenses: make(map[int64]*expense.Expense),
		nextID:   1,
	}
}

func (m *mockExpenseRepository) Create(ctx context.Context, exp *expense.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	exp.ID = m.nextID
	m.nextID++
	m.expenses[exp.ID] = exp.Clone()
	return nil
}

func (m *mockExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	exp, ok := m.expenses[id]
	if !ok {
		return nil, internal.ErrRecordNotFound
	}
	return exp.Clone(), nil
}

func (m *mockExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	if m.listError != nil {
		return nil, 0, m.listError
	}
	var out []*expense.Expense
	for _, exp := range m.expenses {
		if filter.UserID != nil && exp.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && exp.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && exp.Category != *filter.Category {
			continue
		}
		out = append(out, exp.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if filter.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *mockExpenseRepository) Update(ctx context.Context, exp *expense.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.expenses[exp.ID]
	if !ok {
		return internal.ErrRecordNotFound
	}
	stored.Amount = exp.Amount
	stored.Category = exp.Category
	stored.Description = exp.Description
	stored.Date = exp.Date
	stored.PaymentMethod = exp.PaymentMethod
	stored.Tags = append([]string{}, exp.Tags...)
	stored.UpdatedAt = exp.UpdatedAt
	return nil
}

func (m *mockExpenseRepository) UpdateStatus(ctx context.Context, id int64, status expense.Status, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.expenses[id]
	if !ok {
		return internal.ErrRecordNotFound
	}
	stored.Status = status
	stored.UpdatedAt = updatedAt
	return nil
}

func (m *mockExpenseRepository) DeleteUnlessApproved(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.expenses[id]
	if !ok {
		return false, nil
	}
	if m.approveBeforeDelete {
		stored.Status = expense.StatusApproved
	}
	if stored.Status == expense.StatusApproved {
		return false, nil
	}
	delete(m.expenses, id)
	return true, nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, event.EventType())
	return nil
}

func amountOf(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string { return &s }

var _ = Describe("Service", func() {
	var (
		repo      *mockExpenseRepository
		publisher *recordingPublisher
		service   *expense.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		repo = newMockExpenseRepository()
		publisher = &recordingPublisher{}
		service = expense.NewService(repo, publisher, logger.Discard())
		ctx = context.Background()
	})

	mustCreate := func(amount int64, cat, description string) *expense.Expense {
		exp, err := service.Create(ctx, owner, expense.CreateExpenseDTO{
			Amount:      amountOf(amount),
			Category:    cat,
			Description: description,
		})
		Expect(err).NotTo(HaveOccurred())
		return exp
	}

	Describe("Create", func() {
		It("creates a pending expense owned by the caller", func() {
			exp, err := service.Create(ctx, owner, expense.CreateExpenseDTO{
				Amount:        amountOf(50),
				Category:      "Shopping",
				Description:   "Shoes",
				PaymentMethod: "Card",
				Tags:          []string{"gift", "gift"},
				Date:          "2024-04-01",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(exp.ID).To(BeNumerically(">", 0))
			Expect(exp.UserID).To(Equal(owner.ID))
			Expect(exp.Status).To(Equal(expense.StatusPending))
			Expect(exp.Tags).To(Equal([]string{"gift"}))
			Expect(exp.Date.Format(expense.DateLayout)).To(Equal("2024-04-01"))
			Expect(publisher.types).To(Equal([]string{events.EventTypeExpenseCreated}))
		})

		It("returns validation errors without touching the store", func() {
			_, err := service.Create(ctx, owner, expense.CreateExpenseDTO{
				Amount:      amountOf(-5),
				Category:    "Food",
				Description: "Lunch",
			})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
			Expect(repo.expenses).To(BeEmpty())
		})

		It("refuses inactive callers", func() {
			_, err := service.Create(ctx, inactive, expense.CreateExpenseDTO{
				Amount:      amountOf(5),
				Category:    "Food",
				Description: "Lunch",
			})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonInactiveAccount)))
		})

		It("maps store failures to store unavailable", func() {
			repo.createError = errors.New("connection refused")
			_, err := service.Create(ctx, owner, expense.CreateExpenseDTO{
				Amount:      amountOf(5),
				Category:    "Food",
				Description: "Lunch",
			})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeStoreUnavailable))
			Expect(errors.Unwrap(err)).To(MatchError("connection refused"))
		})
	})

	Describe("Get", func() {
		It("lets the owner and admins read", func() {
			exp := mustCreate(10, "Food", "Lunch")

			got, err := service.Get(ctx, owner, exp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(exp.ID))

			_, err = service.Get(ctx, admin, exp.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses strangers with not-owner", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Get(ctx, stranger, exp.ID)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonNotOwner)))
		})

		It("reports missing expenses as not found", func() {
			_, err := service.Get(ctx, owner, 404)
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeNotFound))
		})

		It("maps read failures to store unavailable", func() {
			repo.getError = errors.New("timeout")
			_, err := service.Get(ctx, owner, 1)
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeStoreUnavailable))
		})
	})

	Describe("Update", func() {
		It("edits content fields and keeps owner, id and status", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Approve(ctx, admin, exp.ID)
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, admin, exp.ID, expense.UpdateExpenseDTO{
				Amount:      amountOf(12),
				Description: strPtr("Team lunch"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ID).To(Equal(exp.ID))
			Expect(updated.UserID).To(Equal(owner.ID))
			Expect(updated.Status).To(Equal(expense.StatusApproved))
			Expect(updated.Description).To(Equal("Team lunch"))
			Expect(updated.Category).To(Equal(exp.Category))

			stored, _ := repo.GetByID(ctx, exp.ID)
			Expect(stored.Amount.Equal(decimal.NewFromInt(12))).To(BeTrue())
			Expect(stored.UserID).To(Equal(owner.ID))
		})

		It("lets the owner edit a rejected expense", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Reject(ctx, admin, exp.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, owner, exp.ID, expense.UpdateExpenseDTO{Category: strPtr("Other")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses strangers", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Update(ctx, stranger, exp.ID, expense.UpdateExpenseDTO{Description: strPtr("mine now")})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonNotOwner)))
		})

		It("rejects empty updates", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Update(ctx, owner, exp.ID, expense.UpdateExpenseDTO{})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrCodeEmptyUpdate))
		})
	})

	Describe("Delete", func() {
		It("deletes a pending expense", func() {
			exp := mustCreate(10, "Food", "Lunch")
			Expect(service.Delete(ctx, owner, exp.ID)).To(Succeed())
			Expect(repo.expenses).NotTo(HaveKey(exp.ID))
			Expect(publisher.types).To(ContainElement(events.EventTypeExpenseDeleted))
		})

		It("keeps an expense approved concurrently with the delete", func() {
			exp := mustCreate(10, "Food", "Lunch")
			repo.approveBeforeDelete = true

			err := service.Delete(ctx, owner, exp.ID)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonApprovedImmutable)))
			Expect(repo.expenses).To(HaveKey(exp.ID))
		})

		It("reports missing expenses as not found", func() {
			err := service.Delete(ctx, owner, 999)
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeNotFound))
		})
	})

	Describe("Transition", func() {
		It("approves and rejects through the lifecycle", func() {
			exp := mustCreate(10, "Food", "Lunch")

			approved, err := service.Approve(ctx, admin, exp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(expense.StatusApproved))

			rejected, err := service.Reject(ctx, admin, exp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(expense.StatusRejected))

			Expect(publisher.types).To(Equal([]string{
				events.EventTypeExpenseCreated,
				events.EventTypeExpenseApproved,
				events.EventTypeExpenseRejected,
			}))
		})

		It("refuses a pending target", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Transition(ctx, admin, exp.ID, expense.StatusPending)
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeInvalidTransition))
		})

		It("refuses non-admins", func() {
			exp := mustCreate(10, "Food", "Lunch")
			_, err := service.Approve(ctx, owner, exp.ID)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonNotAdmin)))

			stored, _ := repo.GetByID(ctx, exp.ID)
			Expect(stored.Status).To(Equal(expense.StatusPending))
		})
	})

	It("walks through approval then blocked deletion", func() {
		exp, err := service.Create(ctx, owner, expense.CreateExpenseDTO{
			Amount:      amountOf(50),
			Category:    "Shopping",
			Description: "Shoes",
		})
		Expect(err).NotTo(HaveOccurred())

		approved, err := service.Transition(ctx, admin, exp.ID, expense.StatusApproved)
		Expect(err).NotTo(HaveOccurred())
		Expect(approved.Status).To(Equal(expense.StatusApproved))

		err = service.Delete(ctx, owner, exp.ID)
		Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonApprovedImmutable)))

		err = service.Delete(ctx, admin, exp.ID)
		Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonApprovedImmutable)))

		Expect(repo.expenses).To(HaveKey(exp.ID))
	})

	Describe("listing", func() {
		It("lists only the caller's expenses with paging metadata", func() {
			for i := 0; i < 3; i++ {
				mustCreate(10, "Food", "Lunch")
			}
			_, err := service.Create(ctx, stranger, expense.CreateExpenseDTO{
				Amount: amountOf(1), Category: "Other", Description: "x",
			})
			Expect(err).NotTo(HaveOccurred())

			resp, err := service.ListOwn(ctx, owner, expense.ListQuery{Page: 1, Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Expenses).To(HaveLen(2))
			Expect(resp.Pagination).To(Equal(expense.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}))
			Expect(*repo.lastFilter.UserID).To(Equal(owner.ID))
		})

		It("validates list filters", func() {
			_, err := service.ListOwn(ctx, owner, expense.ListQuery{Category: "Travel"})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrCodeValidationFailed))

			_, err = service.ListOwn(ctx, owner, expense.ListQuery{StartDate: "soon"})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})

		It("restricts the whole-ledger views to admins", func() {
			_, err := service.ListAll(ctx, owner, expense.AdminListQuery{})
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonNotAdmin)))

			_, err = service.ListPending(ctx, owner, 1, 10)
			Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonNotAdmin)))
		})

		It("lists pending expenses across users for admins", func() {
			first := mustCreate(10, "Food", "Lunch")
			mustCreate(20, "Food", "Dinner")
			_, err := service.Approve(ctx, admin, first.ID)
			Expect(err).NotTo(HaveOccurred())

			resp, err := service.ListPending(ctx, admin, 1, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Expenses).To(HaveLen(1))
			Expect(resp.Expenses[0].Description).To(Equal("Dinner"))
			Expect(repo.lastFilter.WithOwner).To(BeTrue())
			Expect(repo.lastFilter.OrderBy).To(Equal(expense.OrderByCreatedDesc))
		})

		It("never returns a null expense list", func() {
			resp, err := service.ListAll(ctx, admin, expense.AdminListQuery{Status: "approved"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Expenses).NotTo(BeNil())
		})

		It("maps list failures to store unavailable", func() {
			repo.listError = errors.New("down")
			_, err := service.ListAll(ctx, admin, expense.AdminListQuery{})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeStoreUnavailable))
		})
	})
})
