package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the expense event pipeline: publish sample lifecycle events through the audit log and the configured broker`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample expense event",
	Long:  `Publish a sample expense lifecycle event (for example expense.approved) to check the broker wiring`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventExpenseID int64
	eventUserID    int64
	eventAmount    string
)

func publishTestEvent(eventType string) error {
	if !slices.Contains(events.ExpenseEventTypes, eventType) {
		return fmt.Errorf("unknown event type %q, want one of %v", eventType, events.ExpenseEventTypes)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	bus, forwarder, err := initEventBus(cfg.Events, lg)
	if err != nil {
		return err
	}
	if forwarder == nil {
		lg.Warn("no broker configured, the event only reaches the audit log")
	} else {
		defer forwarder.Close()
	}

	status := "pending"
	switch eventType {
	case events.EventTypeExpenseApproved:
		status = "approved"
	case events.EventTypeExpenseRejected:
		status = "rejected"
	}

	event := events.NewExpenseEvent(eventType, eventExpenseID, eventUserID, eventUserID, status, eventAmount)
	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	if err := bus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventExpenseID, "expense", 1, "expense id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventUserID, "user", 1, "owner and actor id carried by the event")
	publishEventCmd.Flags().StringVar(&eventAmount, "amount", "10.00", "amount carried by the event")

	eventCmd.AddCommand(publishEventCmd)
}
