package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"credit-scoring-service/internal/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, data []byte, attributes map[string]string) (string, error) {
	args := m.Called(ctx, topic, data, attributes)
	return args.String(0), args.Error(1)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func sampleLoan(status string) models.LoanRecord {
	return models.LoanRecord{
		ID:              "loan-1",
		NID:             "1234567890",
		RequestedAmount: 150000,
		InterestRate:    10.0,
		Status:          status,
		ApplicationDate: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifyLoanOutcome_PublishesApprovalEvent(t *testing.T) {
	publisher := &mockPublisher{}
	service := NewNotificationService(publisher, "loan-outcomes")

	publisher.On("Publish", mock.Anything, "loan-outcomes", mock.Anything,
		map[string]string{"event": EventLoanApproved}).Return("msg-1", nil)

	err := service.NotifyLoanOutcome(context.Background(), sampleLoan(models.LoanStatusApproved))
	require.NoError(t, err)

	publisher.AssertExpectations(t)

	payload := publisher.Calls[0].Arguments.Get(2).([]byte)
	var request SmsNotificationRequest
	require.NoError(t, json.Unmarshal(payload, &request))
	assert.Equal(t, "1234567890", request.NID)
	assert.Equal(t, EventLoanApproved, request.SmsDbEventName)
	require.Len(t, request.NotifParameters, 4)
	assert.Equal(t, "loanId", request.NotifParameters[0].Name)
	assert.Equal(t, "loan-1", request.NotifParameters[0].Value)
	assert.Equal(t, "150000", request.NotifParameters[1].Value)
	assert.Equal(t, "10.0", request.NotifParameters[2].Value)
}

func TestNotifyLoanOutcome_EventPerStatus(t *testing.T) {
	tests := []struct {
		status string
		event  string
	}{
		{models.LoanStatusApproved, EventLoanApproved},
		{models.LoanStatusDeclined, EventLoanDeclined},
		{models.LoanStatusFailed, EventLoanFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			publisher := &mockPublisher{}
			service := NewNotificationService(publisher, "loan-outcomes")
			publisher.On("Publish", mock.Anything, "loan-outcomes", mock.Anything,
				map[string]string{"event": tt.event}).Return("msg-1", nil)

			require.NoError(t, service.NotifyLoanOutcome(context.Background(), sampleLoan(tt.status)))
			publisher.AssertExpectations(t)
		})
	}
}

func TestNotifyLoanOutcome_PublishFailure(t *testing.T) {
	publisher := &mockPublisher{}
	service := NewNotificationService(publisher, "loan-outcomes")
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("topic not found"))

	err := service.NotifyLoanOutcome(context.Background(), sampleLoan(models.LoanStatusApproved))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic not found")
}
