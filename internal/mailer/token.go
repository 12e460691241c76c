package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// FileTokenStore loads and persists the OAuth token as JSON on disk, the
// same shape the original credential tooling writes.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store rooted at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the stored token.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

// Save writes the token with owner-only permissions.
func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	payload, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// persistingTokenSource wraps an oauth2.TokenSource and writes refreshed
// tokens back to the store so the next run skips the refresh round-trip.
type persistingTokenSource struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	store  *FileTokenStore
	last   string
	logger *zap.Logger
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.source.Token()
	if err != nil {
		return nil, fmt.Errorf("obtain token: %w", err)
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if saveErr := p.store.Save(tok); saveErr != nil {
			p.logger.Warn("could not persist refreshed token", zap.Error(saveErr))
		}
	}
	return tok, nil
}

// RunAuthFlow performs the interactive OAuth consent flow: it prints the
// consent URL, reads the authorization code from in, exchanges it, and
// stores the resulting token. Run once before the first sending batch.
func RunAuthFlow(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	oauthCfg, tokens, err := loadOAuthConfig(cfg)
	if err != nil {
		return err
	}
	oauthCfg.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"

	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following link in your browser and authorize access:\n\n%s\n\nEnter the authorization code: ", authURL)

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := tokens.Save(tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", cfg.TokenFile)
	return nil
}
