package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/payment"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

const seedPassword = "password"

type seedAccount struct {
	Name  string
	Email string
	Role  coreuser.Role
}

type seedExpense struct {
	Amount      string
	Category    category.Category
	Description string
	DaysAgo     int
	Method      payment.Method
	Status      expense.Status
	Tags        []string
}

var seedAccounts = []seedAccount{
	{Name: "Admin", Email: "admin@example.com", Role: coreuser.RoleAdmin},
	{Name: "Fadhil", Email: "fadhil@example.com", Role: coreuser.RoleUser},
	{Name: "Padil", Email: "padil@example.com", Role: coreuser.RoleUser},
}

var seedExpenses = map[string][]seedExpense{
	"fadhil@example.com": {
		{Amount: "12.50", Category: category.Food, Description: "Lunch with the team", DaysAgo: 1, Method: payment.Card, Status: expense.StatusPending, Tags: []string{"work"}},
		{Amount: "45.00", Category: category.Transport, Description: "Airport taxi", DaysAgo: 3, Method: payment.Cash, Status: expense.StatusApproved},
		{Amount: "89.99", Category: category.Utilities, Description: "Internet bill", DaysAgo: 10, Method: payment.BankTransfer, Status: expense.StatusApproved, Tags: []string{"monthly"}},
	},
	"padil@example.com": {
		{Amount: "30.00", Category: category.Entertainment, Description: "Concert ticket", DaysAgo: 2, Method: payment.Card, Status: expense.StatusRejected},
		{Amount: "120.00", Category: category.Shopping, Description: "Running shoes", DaysAgo: 5, Method: payment.Card, Status: expense.StatusPending},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts and expenses for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		db, err := initDB(ctx, cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if err := seed(ctx, db.Gorm, clearData); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
	},
}

func seed(ctx context.Context, db *gorm.DB, clear bool) error {
	hash, err := auth.HashPassword(seedPassword, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&expenseDatamodel.Expense{}).Error; err != nil {
				return fmt.Errorf("clear expenses: %w", err)
			}
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&userDatamodel.User{}).Error; err != nil {
				return fmt.Errorf("clear users: %w", err)
			}
			fmt.Println("Cleared existing expenses and users")
		}

		now := time.Now().UTC()
		for _, acc := range seedAccounts {
			var row userDatamodel.User
			err := tx.Where("email = ?", acc.Email).First(&row).Error
			if err == nil {
				fmt.Println("account already exists:", acc.Email)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lookup %s: %w", acc.Email, err)
			}

			row = userDatamodel.User{
				Name:         acc.Name,
				Email:        acc.Email,
				PasswordHash: hash,
				Role:         string(acc.Role),
				IsActive:     true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert %s: %w", acc.Email, err)
			}
			fmt.Printf("Seeded %s account: %s\n", acc.Role, acc.Email)

			for _, e := range seedExpenses[acc.Email] {
				amount, err := decimal.NewFromString(e.Amount)
				if err != nil {
					return fmt.Errorf("seed amount %q: %w", e.Amount, err)
				}
				date := now.AddDate(0, 0, -e.DaysAgo)
				exp := expenseDatamodel.Expense{
					UserID:        row.ID,
					Amount:        amount,
					Category:      string(e.Category),
					Description:   e.Description,
					Date:          time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
					PaymentMethod: string(e.Method),
					Tags:          expenseDatamodel.StringList(e.Tags),
					Status:        string(e.Status),
				}
				if err := tx.Omit("User").Create(&exp).Error; err != nil {
					return fmt.Errorf("insert expense for %s: %w", acc.Email, err)
				}
			}
		}

		fmt.Printf("Seed complete; every account uses the password %q\n", seedPassword)
		return nil
	})
}
