package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"proposal-core/internal/event"
	"proposal-core/pkg/config"
	"proposal-core/pkg/logger"
)

// 任务类型常量
const (
	TypeProposalCreatedEmail = "email:proposal_created"
)

// ---------------------------------------------------------------------
// 1. Producer (Client) Code
// ---------------------------------------------------------------------

// NewProposalCreatedEmailTask 创建新提案通知邮件任务
// 以 tx id 作为任务 ID，MQ 重复投递时入队会冲突，不会重复发信
func NewProposalCreatedEmailTask(evt event.ProposalCreatedEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.Timeout(time.Minute)}
	if evt.TxID != "" {
		opts = append(opts, asynq.TaskID("proposal_created:"+evt.TxID))
	}
	return asynq.NewTask(TypeProposalCreatedEmail, payload, opts...), nil
}

// ---------------------------------------------------------------------
// 2. Consumer (Server) Code
// ---------------------------------------------------------------------

// Mailer 邮件发送
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPMailer STARTTLS + PLAIN 认证
type SMTPMailer struct {
	addr     string
	host     string
	from     string
	password string
}

func NewSMTPMailer(cfg config.NotifyConfig) *SMTPMailer {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{
		addr:     cfg.SMTPServer + ":" + strconv.Itoa(port),
		host:     cfg.SMTPServer,
		from:     strings.TrimSpace(cfg.SenderEmail),
		password: strings.ReplaceAll(cfg.SenderPassword, " ", ""),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("smtp 未配置: %w", asynq.SkipRetry)
	}
	msg := buildMessage(m.from, to, subject, body)
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(m.addr, auth, m.from, to, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: ParkPulse <" + from + ">\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// ProposalEmailHandler 处理新提案通知邮件任务
type ProposalEmailHandler struct {
	mailer     Mailer
	recipients []string
	appURL     string
}

func NewProposalEmailHandler(mailer Mailer, cfg config.NotifyConfig) *ProposalEmailHandler {
	appURL := strings.TrimRight(cfg.AppURL, "/")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return &ProposalEmailHandler{mailer: mailer, recipients: cfg.Recipients, appURL: appURL}
}

// ProcessTask 实现 asynq.Handler
func (h *ProposalEmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var evt event.ProposalCreatedEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		// JSON 解析失败，重试也没用，直接跳过 (SkipRetry)
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if len(h.recipients) == 0 {
		logger.Warn("[Email] 未配置收件人，跳过", zap.String("tx_id", evt.TxID))
		return nil
	}

	subject, body := ComposeProposalEmail(evt, h.appURL)
	if err := h.mailer.Send(ctx, h.recipients, subject, body); err != nil {
		logger.Error("[Email] 发送失败", zap.String("tx_id", evt.TxID), zap.Error(err))
		return err
	}
	logger.Info("[Email] 新提案通知已发送",
		zap.String("park", evt.ParkName), zap.Int("recipients", len(h.recipients)))
	return nil
}

// ComposeProposalEmail 生成邮件标题与正文
func ComposeProposalEmail(evt event.ProposalCreatedEvent, appURL string) (string, string) {
	subject := "New Community Proposal: " + evt.ParkName

	link := appURL + "/proposal"
	if evt.ProposalID != nil {
		link = fmt.Sprintf("%s/vote/%d", appURL, *evt.ProposalID)
	}
	deadline := "-"
	if evt.EndDate > 0 {
		deadline = time.Unix(evt.EndDate, 0).UTC().Format("January 2, 2006")
	}
	description := evt.Description
	if description == "" {
		description = "A new community proposal has been created for park protection."
	}

	var b strings.Builder
	b.WriteString("ParkPulse.ai - Community Voting Platform\n\n")
	b.WriteString("New Proposal Requires Your Vote!\n\n")
	b.WriteString("Park: " + evt.ParkName + "\n")
	b.WriteString("Voting Deadline: " + deadline + "\n\n")
	b.WriteString(description + "\n\n")
	b.WriteString("Vote Now: " + link + "\n")
	if evt.ExplorerURL != "" {
		b.WriteString("Transaction: " + evt.ExplorerURL + "\n")
	}
	b.WriteString("\n---\nThis is an automated notification from ParkPulse.ai\n")
	return subject, b.String()
}
