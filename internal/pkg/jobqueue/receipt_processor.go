package jobqueue

import (
	"fmt"

	"github.com/codigarte/codigarte/app/repository"
	"github.com/codigarte/codigarte/internal/pkg/mail"
)

// processReceiptEmailJob sends a purchase receipt for a confirmed
// transaction. Failures are retried by the queue.
func (q *Queue) processReceiptEmailJob(job *Job) error {
	svc := getBillingService()
	if svc == nil {
		return fmt.Errorf("billing service not configured")
	}

	payload, err := ReceiptEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid receipt email payload: %w", err)
	}

	txn, err := svc.GetTransaction(payload.UserID, payload.PublicID)
	if err != nil {
		return fmt.Errorf("transaction %s not found: %w", payload.PublicID, err)
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(payload.UserID)
	if err != nil {
		return fmt.Errorf("user %d not found: %w", payload.UserID, err)
	}

	subject := fmt.Sprintf("Your receipt for order %s", txn.PublicID)
	body := fmt.Sprintf(
		"<h2>Thank you for your purchase, %s!</h2>"+
			"<p>%s</p>"+
			"<p>Amount: %s USD</p>"+
			"<p>Order reference: %s</p>",
		user.Name, txn.Details, txn.Amount.StringFixed(2), txn.PublicID,
	)

	return mail.SendMail(user.Email, subject, body)
}
