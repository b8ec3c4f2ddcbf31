package testexams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/types"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 200 * time.Millisecond
)

// Client drives the runs API.
type Client struct {
	baseURL string
	http    *http.Client
	poll    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPollInterval sets how often Wait checks a run.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.poll = d
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		poll:    defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit uploads files as one run. Zero thresholds keep the server defaults.
func (c *Client) Submit(ctx context.Context, files []model.File, minExams, minNameParts int) (types.RunAccepted, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if minExams > 0 {
		_ = mw.WriteField("min_exams", strconv.Itoa(minExams))
	}
	if minNameParts > 0 {
		_ = mw.WriteField("min_name_parts", strconv.Itoa(minNameParts))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return types.RunAccepted{}, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return types.RunAccepted{}, fmt.Errorf("failed to write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return types.RunAccepted{}, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs", &body)
	if err != nil {
		return types.RunAccepted{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out types.RunAccepted
	if err := c.do(req, http.StatusAccepted, &out); err != nil {
		return types.RunAccepted{}, err
	}
	return out, nil
}

// SubmitExams builds every exam and submits them as one run.
func (c *Client) SubmitExams(ctx context.Context, exams []Exam, minExams, minNameParts int) (types.RunAccepted, error) {
	files := make([]model.File, 0, len(exams))
	for _, e := range exams {
		data, err := Build(e)
		if err != nil {
			return types.RunAccepted{}, fmt.Errorf("%s: %w", e.Name, err)
		}
		files = append(files, model.File{Name: e.Name, Data: data})
	}
	return c.Submit(ctx, files, minExams, minNameParts)
}

// Status fetches the current state of a run.
func (c *Client) Status(ctx context.Context, id string) (types.RunStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runs/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return types.RunStatus{}, fmt.Errorf("failed to create request: %w", err)
	}
	var out types.RunStatus
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return types.RunStatus{}, err
	}
	return out, nil
}

// Wait polls a run until it finishes or ctx expires.
func (c *Client) Wait(ctx context.Context, id string) (types.RunStatus, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		st, err := c.Status(ctx, id)
		if err != nil {
			return types.RunStatus{}, err
		}
		if st.Finished() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, fmt.Errorf("run %s still %s: %w", id, st.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Leaderboard fetches the ranked entries of a finished run; limit 0 means all.
func (c *Client) Leaderboard(ctx context.Context, id string, limit int) ([]types.Entry, error) {
	u := c.baseURL + "/runs/" + url.PathEscape(id) + "/leaderboard"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var out []types.Entry
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != want {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
