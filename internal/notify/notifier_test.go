package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	awsclient "admissions-intake/internal/common/aws"
	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test doubles
// ==========================

type mockSES struct {
	calls []*ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	calls []*sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func testNotifyConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "admissions@example.edu"
	cfg.Staff.Enabled = true
	cfg.Staff.TopicARN = "arn:aws:sns:us-east-1:123456789012:admissions"
	cfg.AWS.Region = "us-east-1"
	return cfg
}

func testRecord() models.SubmissionRecord {
	form := &models.ApplicationForm{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "a@x.com",
		Program:   "Computer Science",
	}
	return models.NewSubmissionRecord(form, time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
}

// The real AWS client wrappers must plug into the same seams the mocks do.
var (
	_ SESService = (*awsclient.SESClient)(nil)
	_ SNSService = (*awsclient.SNSClient)(nil)
)

// ==========================
// Notification fan-out
// ==========================

func TestSubmissionAcceptedSendsBoth(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewWithClients(testNotifyConfig(), logger.NewNoOpLogger(), sesMock, snsMock)

	n.SubmissionAccepted(context.Background(), testRecord(), "doc-1")

	require.Len(t, sesMock.calls, 1)
	email := sesMock.calls[0]
	assert.Equal(t, []string{"a@x.com"}, email.Destination.ToAddresses)
	assert.Equal(t, "admissions@example.edu", *email.Source)
	assert.Contains(t, *email.Message.Body.Text.Data, "doc-1")
	assert.Contains(t, *email.Message.Body.Text.Data, "Computer Science")

	require.Len(t, snsMock.calls, 1)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*snsMock.calls[0].Message), &payload))
	assert.Equal(t, "doc-1", payload["documentId"])
	assert.Equal(t, "Pending Review", payload["reviewStatus"])
}

func TestSubmissionAcceptedEmailDisabled(t *testing.T) {
	cfg := testNotifyConfig()
	cfg.Email.Enabled = false

	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewWithClients(cfg, logger.NewNoOpLogger(), sesMock, snsMock)

	n.SubmissionAccepted(context.Background(), testRecord(), "doc-2")

	assert.Empty(t, sesMock.calls)
	assert.Len(t, snsMock.calls, 1)
}

func TestSubmissionAcceptedEmailFailureDoesNotBlockStaffAlert(t *testing.T) {
	sesMock := &mockSES{err: fmt.Errorf("ses throttled")}
	snsMock := &mockSNS{}
	n := NewWithClients(testNotifyConfig(), logger.NewNoOpLogger(), sesMock, snsMock)

	assert.NotPanics(t, func() {
		n.SubmissionAccepted(context.Background(), testRecord(), "doc-3")
	})
	assert.Len(t, snsMock.calls, 1)
}

func TestSubmissionAcceptedNoRecipientEmail(t *testing.T) {
	record := testRecord()
	record.Email = ""

	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewWithClients(testNotifyConfig(), logger.NewNoOpLogger(), sesMock, snsMock)

	n.SubmissionAccepted(context.Background(), record, "doc-4")

	assert.Empty(t, sesMock.calls)
}
