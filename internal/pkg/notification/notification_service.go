package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/pubsub"
)

const (
	EventLoanApproved = "LOAN_APPROVED"
	EventLoanDeclined = "LOAN_DECLINED"
	EventLoanFailed   = "LOAN_FAILED"
)

const publishTimeout = 30 * time.Second

// NotificationParameter is one template placeholder and its value.
type NotificationParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SmsNotificationRequest is the payload the downstream SMS service consumes.
type SmsNotificationRequest struct {
	NID             string                  `json:"nid"`
	SmsDbEventName  string                  `json:"smsDbEventName"`
	NotifParameters []NotificationParameter `json:"notifParameters"`
}

// NotificationService publishes loan-outcome notifications over pub/sub.
type NotificationService struct {
	publisher pubsub.PubSubPublisherInterface
	topic     string
}

func NewNotificationService(publisher pubsub.PubSubPublisherInterface, topic string) *NotificationService {
	return &NotificationService{publisher: publisher, topic: topic}
}

// NotifyLoanOutcome sends the borrower an SMS for the loan's terminal status.
func (h *NotificationService) NotifyLoanOutcome(ctx context.Context, loan models.LoanRecord) error {
	event := eventForStatus(loan.Status)

	request := SmsNotificationRequest{
		NID:            loan.NID,
		SmsDbEventName: event,
		NotifParameters: []NotificationParameter{
			{Name: "loanId", Value: loan.ID},
			{Name: "amount", Value: fmt.Sprintf("%d", loan.RequestedAmount)},
			{Name: "interestRate", Value: fmt.Sprintf("%.1f", loan.InterestRate)},
			{Name: "applicationDate", Value: loan.ApplicationDate.Format(time.RFC3339)},
		},
	}

	payload, err := json.Marshal(request)
	if err != nil {
		logger.CtxError(ctx, "Failed to marshal SMS notification request", err)
		return fmt.Errorf("marshal sms request: %w", err)
	}

	// separate timeout so a dying request context cannot strand the publish
	pubsubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	messageID, err := h.publisher.Publish(pubsubCtx, h.topic, payload, map[string]string{"event": event})
	if err != nil {
		logger.CtxError(ctx, "Failed to publish SMS notification", err,
			slog.String("topic", h.topic),
			slog.String("loan_id", loan.ID))
		return fmt.Errorf("publish to pubsub: %w", err)
	}

	logger.CtxInfo(ctx, "Loan outcome notification published",
		slog.String("loan_id", loan.ID),
		slog.String("event", event),
		slog.String("message_id", messageID))
	return nil
}

func eventForStatus(status string) string {
	switch status {
	case models.LoanStatusApproved:
		return EventLoanApproved
	case models.LoanStatusDeclined:
		return EventLoanDeclined
	default:
		return EventLoanFailed
	}
}
