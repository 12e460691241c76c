// Package mailer sends outreach messages through the Gmail API using
// OAuth2 user credentials.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

// ErrNoCredentials means the long-lived OAuth credential or token is
// missing or unusable. The batch must not start when sending is requested
// and this is returned, since no send could ever succeed.
var ErrNoCredentials = errors.New("gmail credentials not available")

// Config controls authentication and send retry behavior.
type Config struct {
	CredentialsFile string
	TokenFile       string
	MaxRetries      int
}

// Mailer implements pipeline.Notifier over the Gmail API.
type Mailer struct {
	svc    *gmail.Service
	sender string
	retry  *RetryPolicy
	logger *zap.Logger
}

// New authenticates against the Gmail API. The stored token is refreshed
// automatically and persisted back to the token file when it rotates.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	oauthCfg, tokens, err := loadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tok, err := tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: no stored token at %s (run the auth command first): %v",
			ErrNoCredentials, cfg.TokenFile, err)
	}

	source := &persistingTokenSource{
		source: oauthCfg.TokenSource(ctx, tok),
		store:  tokens,
		last:   tok.AccessToken,
		logger: logger,
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("build gmail service: %w", err)
	}

	m := &Mailer{
		svc:    svc,
		retry:  NewRetryPolicy(cfg.MaxRetries),
		logger: logger,
	}
	m.resolveSender(ctx)
	return m, nil
}

func loadOAuthConfig(cfg Config) (*oauth2.Config, *FileTokenStore, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrNoCredentials, cfg.CredentialsFile, err)
	}
	oc, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse client secret: %v", ErrNoCredentials, err)
	}
	return oc, NewFileTokenStore(cfg.TokenFile), nil
}

func (m *Mailer) resolveSender(ctx context.Context) {
	profile, err := m.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		m.logger.Warn("could not resolve sender address", zap.Error(err))
		return
	}
	m.sender = profile.EmailAddress
	m.logger.Info("gmail authenticated", zap.String("sender", m.sender))
}

// Sender returns the authenticated account's address, or empty when the
// profile lookup failed.
func (m *Mailer) Sender() string {
	return m.sender
}

// Send delivers the message and returns the Gmail message ID. Transient
// failures are retried with jittered backoff; client errors (bad request,
// auth) are not.
func (m *Mailer) Send(ctx context.Context, to string, msg pipeline.Message) (string, error) {
	raw := encodeMessage(m.sender, to, msg)

	var lastErr error
	for attempt := 0; ; attempt++ {
		sent, err := m.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
		if err == nil {
			return sent.Id, nil
		}
		lastErr = err
		if !m.retry.ShouldRetry(err, attempt) {
			return "", fmt.Errorf("gmail send to %s: %w", to, lastErr)
		}
		backoff := m.retry.Backoff(attempt)
		m.logger.Warn("send attempt failed, retrying",
			zap.String("to", to),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("gmail send canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
}

// encodeMessage builds an RFC 2822 message and encodes it the way the Gmail
// API expects: URL-safe base64 of the raw bytes.
func encodeMessage(from, to string, msg pipeline.Message) string {
	var headers string
	if from != "" {
		headers += "From: " + from + "\r\n"
	}
	headers += "To: " + to + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n"
	return base64.URLEncoding.EncodeToString([]byte(headers + msg.Body))
}
