package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// DefaultEndpoint is the EmailJS REST endpoint for sending a template mail.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 30 * time.Second

// previewLimit caps the number of entry lines rendered per section so a
// large batch cannot blow past template size limits.
const previewLimit = 20

// ErrSendFailed is returned when the EmailJS API rejects a delivery.
var ErrSendFailed = errors.New("notify: send failed")

// Notifier delivers a batch of changed leak entries.
type Notifier interface {
	// Notify sends one alert covering the whole batch. An empty batch
	// is a no-op.
	Notify(ctx context.Context, batch []*model.LeakEntry) error
}

// Config holds the EmailJS account coordinates.
type Config struct {
	// ServiceID is the EmailJS service identifier.
	ServiceID string `yaml:"service_id"`
	// TemplateID is the EmailJS template identifier.
	TemplateID string `yaml:"template_id"`
	// UserID is the EmailJS public user key.
	UserID string `yaml:"user_id"`
	// Email is the recipient address injected into the template.
	Email string `yaml:"email"`
	// Endpoint overrides DefaultEndpoint. Mainly for tests.
	Endpoint string `yaml:"endpoint,omitempty"`
	// Timeout bounds one delivery attempt. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Enabled reports whether the config carries enough fields to deliver mail.
func (c Config) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.UserID != ""
}

// Mailer sends leak alerts through EmailJS.
type Mailer struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// MailerOption customizes a Mailer.
type MailerOption func(*Mailer)

// WithLogger sets the logger used for delivery outcomes.
func WithLogger(logger *slog.Logger) MailerOption {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client. Mainly for tests.
func WithHTTPClient(client *http.Client) MailerOption {
	return func(m *Mailer) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// NewMailer returns a Mailer for the given EmailJS account.
func NewMailer(cfg Config, opts ...MailerOption) *Mailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	m := &Mailer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// payload mirrors the EmailJS send request body.
type payload struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	NewLink     string `json:"new_link"`
	RemovedLink string `json:"removed_link"`
	Email       string `json:"email"`
}

// Notify sends one alert mail summarizing the batch. Entries with status
// new fill the new section, deleted entries fill the removed section.
func (m *Mailer) Notify(ctx context.Context, batch []*model.LeakEntry) error {
	if len(batch) == 0 {
		return nil
	}
	if !m.cfg.Enabled() {
		m.logger.DebugContext(ctx, "notifier disabled, dropping batch", "entries", len(batch))
		return nil
	}

	body := payload{
		ServiceID:  m.cfg.ServiceID,
		TemplateID: m.cfg.TemplateID,
		UserID:     m.cfg.UserID,
		TemplateParams: templateParams{
			NewLink:     renderSection(batch, model.LeakStatusNew),
			RemovedLink: renderSection(batch, model.LeakStatusDeleted),
			Email:       m.cfg.Email,
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: unexpected status %d", ErrSendFailed, resp.StatusCode)
	}
	m.logger.InfoContext(ctx, "alert mail sent", "entries", len(batch))
	return nil
}

// renderSection formats the batch entries that carry the given status,
// one masked line per entry, sorted for stable mail bodies.
func renderSection(batch []*model.LeakEntry, status model.LeakStatus) string {
	lines := make([]string, 0, len(batch))
	for _, entry := range batch {
		if entry.Status != status {
			continue
		}
		lines = append(lines, previewLine(entry))
	}
	if len(lines) == 0 {
		return "none"
	}
	sort.Strings(lines)
	if len(lines) > previewLimit {
		omitted := len(lines) - previewLimit
		lines = append(lines[:previewLimit], fmt.Sprintf("... and %d more", omitted))
	}
	return strings.Join(lines, "\n")
}

// previewLine renders one entry as "[entity] summary key=value ..." with
// every sensitive detail masked.
func previewLine(entry *model.LeakEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s %s] %s", entry.EntityType, entry.Entity, entry.Summary)

	masked := entry.MaskedDetails()
	keys := make([]string, 0, len(masked))
	for key := range masked {
		if key == model.DetailSource || key == model.DetailBreach {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if masked[key] == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=%s", key, masked[key])
	}
	return b.String()
}

// Nop is a Notifier that drops every batch. Used when mail is disabled.
type Nop struct{}

// Notify implements Notifier and does nothing.
func (Nop) Notify(context.Context, []*model.LeakEntry) error { return nil }
