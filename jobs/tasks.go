package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskQuoteFlushDrafts reconciles autosaved drafts into PostgreSQL.
	TaskQuoteFlushDrafts = "quote:flush_drafts"
	// TaskQuoteExpireSweep expires sent quotations past their validity date.
	TaskQuoteExpireSweep = "quote:expire_sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP relay once the client-facing
	// notification flow is enabled.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// NewFlushDraftsTask constructs the draft reconciliation task.
func NewFlushDraftsTask() *asynq.Task {
	return asynq.NewTask(TaskQuoteFlushDrafts, nil)
}

// NewExpireSweepTask constructs the expiration sweep task.
func NewExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskQuoteExpireSweep, nil)
}
