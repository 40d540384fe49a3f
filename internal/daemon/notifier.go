package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fenilsonani/homesweep/internal/config"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

// Notifier posts a webhook after scheduled scans
type Notifier struct {
	config config.NotificationConfig
	client *http.Client
	logger *logger.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(cfg config.NotificationConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log,
	}
}

// NotificationMessage is the webhook payload
type NotificationMessage struct {
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
}

// SendReportNotification posts the outcome of a report job when the
// reclaimable size reaches the configured threshold. Failures are logged.
func (n *Notifier) SendReportNotification(ctx context.Context, res *JobResult) bool {
	if res.Totals.Bytes < n.config.MinReclaimableBytes() {
		return false
	}

	msg := &NotificationMessage{
		Title: fmt.Sprintf("homesweep: %s", res.Job),
		Message: fmt.Sprintf("%d files, %s reclaimable",
			res.Totals.Count, utils.FormatBytes(res.Totals.Bytes)),
		Timestamp: time.Now().UTC(),
		Type:      "report",
		Data: map[string]interface{}{
			"job":      res.Job,
			"count":    res.Totals.Count,
			"bytes":    res.Totals.Bytes,
			"reportId": res.ReportID,
			"duration": res.Duration.String(),
		},
	}

	if err := n.sendWebhook(ctx, msg); err != nil {
		n.logger.Error("Failed to send webhook notification: %v", err)
		return false
	}
	n.logger.Info("Webhook notification sent: %s", msg.Title)
	return true
}

// sendWebhook sends a webhook notification
func (n *Notifier) sendWebhook(ctx context.Context, msg *NotificationMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	method := strings.ToUpper(n.config.Method)
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, n.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
