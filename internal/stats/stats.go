package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-tracker/internal/category"
)

// Row is the slice of a ledger entry the reducers need.
type Row struct {
	ID       int64
	UserID   int64
	Amount   decimal.Decimal
	Category category.Category
}

// Summary is the per-user headline figures.
type Summary struct {
	Total   decimal.Decimal `json:"totalExpenses"`
	Average decimal.Decimal `json:"averageExpense"`
	Highest decimal.Decimal `json:"highestExpense"`
	Lowest  decimal.Decimal `json:"lowestExpense"`
	Count   int64           `json:"totalCount"`
}

type CategoryTotal struct {
	Category category.Category `json:"category"`
	Total    decimal.Decimal   `json:"total"`
	Count    int64             `json:"count"`
}

type UserTotal struct {
	UserID    int64           `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	Count     int64           `json:"count"`
	UserName  string          `json:"userName"`
	UserEmail string          `json:"userEmail"`
}

type UserStats struct {
	Stats      Summary         `json:"stats"`
	ByCategory []CategoryTotal `json:"byCategory"`
}

type SystemTotals struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Average     decimal.Decimal `json:"averageExpense"`
}

type SystemStats struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalExpenses int64           `json:"totalExpenses"`
	Stats         SystemTotals    `json:"stats"`
	ByCategory    []CategoryTotal `json:"byCategory"`
	TopUsers      []UserTotal     `json:"topUsers"`
}

// Aggregator folds ledger rows one at a time so a scan never has to hold
// the whole ledger. Groups remember the order they were first seen in, which
// is the tie order of the rankings.
type Aggregator struct {
	total   decimal.Decimal
	highest decimal.Decimal
	lowest  decimal.Decimal
	count   int64

	categories    map[category.Category]*CategoryTotal
	categoryOrder []category.Category
	users         map[int64]*UserTotal
	userOrder     []int64
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		categories: make(map[category.Category]*CategoryTotal),
		users:      make(map[int64]*UserTotal),
	}
}

func (a *Aggregator) Add(r Row) {
	if a.count == 0 {
		a.highest = r.Amount
		a.lowest = r.Amount
	} else {
		if r.Amount.GreaterThan(a.highest) {
			a.highest = r.Amount
		}
		if r.Amount.LessThan(a.lowest) {
			a.lowest = r.Amount
		}
	}
	a.total = a.total.Add(r.Amount)
	a.count++

	ct, ok := a.categories[r.Category]
	if !ok {
		ct = &CategoryTotal{Category: r.Category}
		a.categories[r.Category] = ct
		a.categoryOrder = append(a.categoryOrder, r.Category)
	}
	ct.Total = ct.Total.Add(r.Amount)
	ct.Count++

	ut, ok := a.users[r.UserID]
	if !ok {
		ut = &UserTotal{UserID: r.UserID}
		a.users[r.UserID] = ut
		a.userOrder = append(a.userOrder, r.UserID)
	}
	ut.Total = ut.Total.Add(r.Amount)
	ut.Count++
}

func (a *Aggregator) Count() int64 {
	return a.count
}

// Summary returns the headline figures; an empty aggregator yields all zeros.
func (a *Aggregator) Summary() Summary {
	if a.count == 0 {
		return Summary{
			Total:   decimal.Zero,
			Average: decimal.Zero,
			Highest: decimal.Zero,
			Lowest:  decimal.Zero,
		}
	}
	return Summary{
		Total:   a.total,
		Average: a.total.Div(decimal.NewFromInt(a.count)),
		Highest: a.highest,
		Lowest:  a.lowest,
		Count:   a.count,
	}
}

// ByCategory returns category totals by descending total.
func (a *Aggregator) ByCategory() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(a.categoryOrder))
	for _, c := range a.categoryOrder {
		out = append(out, *a.categories[c])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// TopUsers returns at most n users by descending total. n <= 0 means all.
func (a *Aggregator) TopUsers(n int) []UserTotal {
	out := make([]UserTotal, 0, len(a.userOrder))
	for _, id := range a.userOrder {
		out = append(out, *a.users[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func aggregate(rows []Row) *Aggregator {
	agg := NewAggregator()
	for _, r := range rows {
		agg.Add(r)
	}
	return agg
}

func Summarize(rows []Row) Summary {
	return aggregate(rows).Summary()
}

func GroupByCategory(rows []Row) []CategoryTotal {
	return aggregate(rows).ByCategory()
}

func RankUsers(rows []Row, n int) []UserTotal {
	return aggregate(rows).TopUsers(n)
}
