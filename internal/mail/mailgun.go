// 包 mail：Mailgun 发信、邮件模板、确认码与 webhook 校验
package mail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"demsausage-api/internal/config"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/metrics"
)

// Message：一封待发送的 HTML 邮件；Template 仅用于指标与日志
type Message struct {
	To       string
	Subject  string
	HTML     string
	Template string
}

// Sender：发信抽象，测试中以内存实现替换
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Error：Mailgun 返回非 200 时的错误，保留状态码与响应体
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string { return fmt.Sprintf("mailgun error (%d): %s", e.Status, e.Body) }

// Client：Mailgun messages API
type Client struct {
	BaseURL string
	APIKey  string
	From    string
	ReplyTo string
	HTTP    *http.Client
}

// NewClient：HTTP 为空时使用 10s 超时的默认客户端
func NewClient(c *config.Config) *Client {
	return &Client{
		BaseURL: strings.TrimRight(c.MailgunAPIBaseURL, "/"),
		APIKey:  c.MailgunAPIKey,
		From:    c.MailgunFromAddress,
		ReplyTo: c.MailgunReplyTo,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send：POST {BaseURL}/messages，basic auth 用户名固定为 api
func (c *Client) Send(ctx context.Context, m Message) error {
	form := url.Values{}
	form.Set("from", c.From)
	if c.ReplyTo != "" {
		form.Set("h:Reply-To", c.ReplyTo)
	}
	form.Set("to", m.To)
	form.Set("subject", m.Subject)
	form.Set("html", m.HTML)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", c.APIKey)
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.MailSendTotal.WithLabelValues(m.Template, "fail").Inc()
		logger.L().Error("mailgun_http_error", "template", m.Template, "err", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.MailSendTotal.WithLabelValues(m.Template, "fail").Inc()
		logger.L().Error("mailgun_status_error", "template", m.Template, "status", resp.StatusCode)
		return &Error{Status: resp.StatusCode, Body: string(body)}
	}
	metrics.MailSendTotal.WithLabelValues(m.Template, "ok").Inc()
	logger.L().Info("mailgun_sent", "template", m.Template, "duration_ms", time.Since(t0).Milliseconds())
	return nil
}
