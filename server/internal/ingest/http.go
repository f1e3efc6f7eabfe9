package ingest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/config"
)

// maxBodySize caps the upstream response read into memory.
const maxBodySize = 32 << 20

// HTTPSource reads the original incident REST endpoint. The endpoint sits
// behind an API gateway and answers with either a proxy envelope whose body
// is a JSON-encoded string, an envelope whose body is the array itself, or
// the bare array.
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

// NewHTTP builds the http source with the auth and TLS settings of cfg.
func NewHTTP(cfg config.SourceConfig) (*HTTPSource, error) {
	client, err := buildHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("ingest: http source: %w", err)
	}
	return &HTTPSource{endpoint: cfg.Endpoint, client: client}, nil
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]types.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}

	alerts := make([]types.Alert, 0, len(records))
	for i, r := range records {
		a, ok := r.toAlert()
		if !ok {
			slog.Warn("ingest: skipping record without num_chamado", "index", i)
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// record is one upstream incident row.
type record struct {
	NumChamado     flexString      `json:"num_chamado"`
	Equipe         flexString      `json:"equipe"`
	SolucAplicada  json.RawMessage `json:"soluc_aplicada"`
	DatAbertura    flexString      `json:"dat_abertura"`
	Titulo         flexString      `json:"titulo"`
	Impacto        flexString      `json:"impacto"`
	CausadoPelaRDM json.RawMessage `json:"causado_pela_rdm"`
}

func (r record) toAlert() (types.Alert, bool) {
	id := strings.TrimSpace(string(r.NumChamado))
	if id == "" {
		return types.Alert{}, false
	}
	status := types.StatusOpen
	if truthy(r.SolucAplicada) {
		status = types.StatusClosed
	}
	raw := string(r.DatAbertura)
	return types.Alert{
		ID:           id,
		Code:         id,
		Team:         string(r.Equipe),
		Status:       status,
		OpenedAt:     parseTimestamp(raw),
		OpenedRaw:    raw,
		Summary:      string(r.Titulo),
		Severity:     severityOrDefault(string(r.Impacto)),
		Acknowledged: truthy(r.CausadoPelaRDM),
	}, true
}

// decodeRecords accepts the three response shapes the endpoint is known to
// produce.
func decodeRecords(data []byte) ([]record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode: empty response")
	}
	if data[0] == '[' {
		return decodeArray(data)
	}

	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	body := bytes.TrimSpace(envelope.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, fmt.Errorf("decode envelope: missing body")
	}
	if body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("decode envelope body: %w", err)
		}
		body = bytes.TrimSpace([]byte(s))
	}
	return decodeArray(body)
}

func decodeArray(data []byte) ([]record, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(b)
	}
	return nil
}

// truthy reports whether raw is a JSON value that is not false, null, zero
// or the empty string. A missing field is false.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// authRoundTripper injects the configured credentials into every request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.SourceAuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs a client for the source's auth and TLS settings.
func buildHTTPClient(cfg config.SourceConfig) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if cfg.Auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(cfg.Auth.CertFile, cfg.Auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if cfg.Auth.CAFile != "" {
			caPEM, err := os.ReadFile(cfg.Auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", cfg.Auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsCfg
	return &http.Client{
		Transport: &authRoundTripper{base: base, auth: cfg.Auth},
		Timeout:   cfg.Timeout,
	}, nil
}
