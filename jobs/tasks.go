package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/parkdesk/parkdesk/internal/billing"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBillingMonthly runs the monthly billing cycle.
	TaskBillingMonthly = billing.CycleName
)

// BillingCyclePayload selects the billing date. An empty Date means the
// current date in the billing location at processing time.
type BillingCyclePayload struct {
	Date string `json:"date,omitempty"`
}

// NewBillingCycleTask constructs the monthly billing task.
func NewBillingCycleTask(payload BillingCyclePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBillingMonthly, data), nil
}
