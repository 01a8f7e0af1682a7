package expense

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

type Expense struct {
	ID            int64               `gorm:"primaryKey"`
	UserID        int64               `gorm:"column:user_id;not null;index"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Category      string              `gorm:"column:category;not null;index"`
	Description   string              `gorm:"column:description;not null"`
	Date          time.Time           `gorm:"column:date;type:date;not null"`
	PaymentMethod string              `gorm:"column:payment_method;not null"`
	Tags          StringList          `gorm:"column:tags;type:text"`
	Status        string              `gorm:"column:status;not null;index"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	User          *userDatamodel.User `gorm:"foreignKey:UserID"`
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}

// StringList persists a list of strings as a JSON array in a text column so
// the same schema works on postgres and sqlite.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}
