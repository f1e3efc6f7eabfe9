package notify

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/ciops/alertdesk/pkg/types"
)

var (
	// ErrNoEndpointConfigured means neither a team binding nor a default
	// binding exists for an alert. It is a configuration problem surfaced to
	// the operator, never retried.
	ErrNoEndpointConfigured = errors.New("no webhook endpoint configured")

	// ErrInvalidBinding is returned by Set and SetDefault for a malformed
	// team name or URL.
	ErrInvalidBinding = errors.New("invalid webhook binding")
)

// Bindings is a thread-safe team → webhook URL table with an optional
// default URL. The zero value is not usable; call NewBindings.
type Bindings struct {
	mu    sync.RWMutex
	teams map[string]string
	def   string
}

// NewBindings returns an empty table.
func NewBindings() *Bindings {
	return &Bindings{teams: make(map[string]string)}
}

// Set binds team to rawURL, replacing any previous binding for that team.
func (b *Bindings) Set(team, rawURL string) error {
	team = strings.TrimSpace(team)
	if team == "" {
		return fmt.Errorf("%w: team is required", ErrInvalidBinding)
	}
	if err := validateURL(rawURL); err != nil {
		return err
	}
	b.mu.Lock()
	b.teams[team] = rawURL
	b.mu.Unlock()
	return nil
}

// Remove deletes the binding for team and reports whether one existed.
func (b *Bindings) Remove(team string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.teams[team]; !ok {
		return false
	}
	delete(b.teams, team)
	return true
}

// SetDefault sets the fallback URL. An empty rawURL clears it.
func (b *Bindings) SetDefault(rawURL string) error {
	if rawURL != "" {
		if err := validateURL(rawURL); err != nil {
			return err
		}
	}
	b.mu.Lock()
	b.def = rawURL
	b.mu.Unlock()
	return nil
}

// Default returns the fallback URL, or "" if none is set.
func (b *Bindings) Default() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.def
}

// List returns every binding sorted by team, with the default binding (if
// any) first. URLs are returned as stored; callers that expose them must
// Redact.
func (b *Bindings) List() []types.WebhookBinding {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.WebhookBinding, 0, len(b.teams)+1)
	if b.def != "" {
		out = append(out, types.WebhookBinding{URL: b.def, Default: true})
	}
	teams := make([]string, 0, len(b.teams))
	for t := range b.teams {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	for _, t := range teams {
		out = append(out, types.WebhookBinding{Team: t, URL: b.teams[t]})
	}
	return out
}

// Resolve returns the URL for team: the exact team binding if present,
// otherwise the default, otherwise ErrNoEndpointConfigured.
func (b *Bindings) Resolve(team string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if u, ok := b.teams[team]; ok {
		return u, nil
	}
	if b.def != "" {
		return b.def, nil
	}
	return "", ErrNoEndpointConfigured
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https", ErrInvalidBinding)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host", ErrInvalidBinding)
	}
	return nil
}

// Redact strips the query string and user info from rawURL. Chat webhook
// URLs carry their credentials in the query, so this is applied to every
// URL that is logged or returned by the API.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	u.Fragment = ""
	return u.String()
}
