// Package notify sends best-effort notifications after a submission is
// accepted: a confirmation email to the applicant over SES and an alert to
// the admissions staff topic over SNS. Failures are logged and never
// propagate back to the submit path.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsclient "admissions-intake/internal/common/aws"
	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier fans one accepted submission out to the applicant and the staff
// topic, each gated by its own config switch.
type Notifier struct {
	cfg       config.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

// New builds a Notifier with real AWS clients.
func New(cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	ctx := context.Background()

	sesClient, err := awsclient.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := awsclient.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return &Notifier{
		cfg:       cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}, nil
}

// NewWithClients injects the AWS service clients. Used by tests.
func NewWithClients(cfg config.NotificationConfig, log logger.Logger, sesClient SESService, snsClient SNSService) *Notifier {
	return &Notifier{
		cfg:       cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// SubmissionAccepted sends the applicant confirmation and the staff alert.
// Each send is independent; a failure on one does not block the other.
func (n *Notifier) SubmissionAccepted(ctx context.Context, record models.SubmissionRecord, docID string) {
	if n.cfg.Email.Enabled && record.Email != "" {
		if err := n.sendConfirmationEmail(ctx, record, docID); err != nil {
			n.logger.WithError(err).Warn("Confirmation email send failed", map[string]interface{}{
				"document_id": docID,
			})
		}
	}

	if n.cfg.Staff.Enabled && n.cfg.Staff.TopicARN != "" {
		if err := n.publishStaffAlert(ctx, record, docID); err != nil {
			n.logger.WithError(err).Warn("Staff alert publish failed", map[string]interface{}{
				"document_id": docID,
				"topic_arn":   n.cfg.Staff.TopicARN,
			})
		}
	}
}

func (n *Notifier) sendConfirmationEmail(ctx context.Context, record models.SubmissionRecord, docID string) error {
	subject := "Application Received"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour admissions application for %s has been received (reference %s).\nCurrent status: %s.\n",
		strings.TrimSpace(record.FirstName+" "+record.LastName),
		record.Program,
		docID,
		record.ReviewStatus,
	)

	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{record.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) publishStaffAlert(ctx context.Context, record models.SubmissionRecord, docID string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"documentId":   docID,
		"program":      record.Program,
		"submittedAt":  record.SubmittedAt,
		"reviewStatus": record.ReviewStatus,
		"alertedAt":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	_, err = n.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.Staff.TopicARN),
		Subject:  aws.String("New admissions submission"),
		Message:  aws.String(string(payload)),
	})
	return err
}
