package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/internal/event"
	"proposal-core/pkg/config"
)

type recordingMailer struct {
	to      []string
	subject string
	body    string
	err     error
}

func (m *recordingMailer) Send(_ context.Context, to []string, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func sampleEvent() event.ProposalCreatedEvent {
	id := uint64(5)
	return event.ProposalCreatedEvent{
		ProposalID:  &id,
		ParkName:    "Rock Creek Park",
		ParkID:      "rock-creek",
		EndDate:     1767225599,
		Description: "Vegetation loss of 50%.",
		TxID:        "ab12",
		ExplorerURL: "https://testnet.flowdiver.io/transaction/ab12",
	}
}

func TestComposeProposalEmail(t *testing.T) {
	subject, body := ComposeProposalEmail(sampleEvent(), "https://parkpulse.ai")
	assert.Equal(t, "New Community Proposal: Rock Creek Park", subject)
	assert.Contains(t, body, "https://parkpulse.ai/vote/5")
	assert.Contains(t, body, "Voting Deadline: December 31, 2025")
	assert.Contains(t, body, "Vegetation loss of 50%.")

	evt := sampleEvent()
	evt.ProposalID = nil
	evt.Description = ""
	_, body = ComposeProposalEmail(evt, "https://parkpulse.ai")
	assert.Contains(t, body, "https://parkpulse.ai/proposal", "没有提案 ID 时链接到列表页")
	assert.Contains(t, body, "A new community proposal has been created")
}

func TestProposalEmailHandler(t *testing.T) {
	cfg := config.NotifyConfig{AppURL: "https://parkpulse.ai/", Recipients: []string{"a@example.com"}}

	task, err := NewProposalCreatedEmailTask(sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, TypeProposalCreatedEmail, task.Type())

	mailer := &recordingMailer{}
	h := NewProposalEmailHandler(mailer, cfg)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"a@example.com"}, mailer.to)
	assert.Contains(t, mailer.body, "https://parkpulse.ai/vote/5")

	mailer.err = errors.New("451 try again later")
	assert.Error(t, h.ProcessTask(context.Background(), task), "发送失败交给 asynq 重试")
}

func TestProposalEmailHandler_BadPayload(t *testing.T) {
	h := NewProposalEmailHandler(&recordingMailer{}, config.NotifyConfig{Recipients: []string{"a@example.com"}})
	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeProposalCreatedEmail, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestProposalEmailHandler_NoRecipients(t *testing.T) {
	mailer := &recordingMailer{}
	h := NewProposalEmailHandler(mailer, config.NotifyConfig{})
	payload, _ := json.Marshal(sampleEvent())
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(TypeProposalCreatedEmail, payload)))
	assert.Empty(t, mailer.subject)
}

func TestSMTPMailer_NotConfigured(t *testing.T) {
	m := NewSMTPMailer(config.NotifyConfig{})
	err := m.Send(context.Background(), []string{"a@example.com"}, "s", "b")
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
