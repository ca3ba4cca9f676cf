// Package medstore reads the user's medication list from the
// health-assistant backend. The store is external and read-only to the
// agent: records are immutable snapshots per fetch.
package medstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	logx "medagent/pkg/logx"
)

// ErrUnauthorized marks a 401 from the backend: the session token is
// missing, expired, or revoked. Callers log it distinctly but never
// escalate (the web client owns re-login).
var ErrUnauthorized = errors.New("medstore: unauthorized")

// ID is a medication identifier. The backend serves numeric ids today but
// the agent treats them as opaque strings, so a backend move to UUIDs
// costs nothing here.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = []byte(strings.TrimSpace(string(b)))
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	// Round-trip numeric ids as numbers so payloads stay byte-compatible.
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Medication mirrors one record of GET /medications/.
type Medication struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Quantity string `json:"quantity,omitempty"`
	TimesRaw string `json:"times"`
	Notes    string `json:"notes,omitempty"`
}

// Store is the contract the reminder loop needs. The HTTP client below is
// the production implementation; tests substitute fakes.
type Store interface {
	List(ctx context.Context, token string) ([]Medication, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration // per-request; 0 means 10s
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("medstore: base URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

func (c *Client) List(ctx context.Context, token string) ([]Medication, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/medications/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("medstore: list: %w", err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("medstore: list: unexpected status %d", resp.StatusCode)
	}

	var meds []Medication
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&meds); err != nil {
		return nil, fmt.Errorf("medstore: decode: %w", err)
	}
	return meds, nil
}
