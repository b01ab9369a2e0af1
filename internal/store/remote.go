package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

// Remote talks to a `sansu serve` instance over HTTP.
type Remote struct {
	base   string
	client *http.Client
}

// NewRemote returns a client for the service at baseURL.
func NewRemote(baseURL string) (*Remote, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote store url %q", baseURL)
	}
	return &Remote{
		base:   strings.TrimRight(u.String(), "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// AppendAttempt posts rec to the service.
func (r *Remote) AppendAttempt(ctx context.Context, rec model.AttemptRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	resp, err := r.do(ctx, http.MethodPost, r.base+"/api/attempts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusCreated {
		return statusError(resp)
	}
	return nil
}

// QueryByField fetches attempts where field equals value.
func (r *Remote) QueryByField(ctx context.Context, field, value string) ([]model.AttemptRecord, error) {
	q := url.Values{}
	q.Set("field", field)
	q.Set("value", value)
	resp, err := r.do(ctx, http.MethodGet, r.base+"/api/attempts?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var attempts []model.AttemptRecord
	if err := json.NewDecoder(resp.Body).Decode(&attempts); err != nil {
		return nil, fmt.Errorf("failed to decode attempts: %w", err)
	}
	for i := range attempts {
		attempts[i].Grade = model.NormalizeGrade(attempts[i].Grade)
	}
	return attempts, nil
}

// Close releases idle connections.
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *Remote) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("remote store: %s: %s", resp.Status, payload.Error)
	}
	return fmt.Errorf("remote store: unexpected status %s", resp.Status)
}
