package reststore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	preferReturn = "return=representation"
	preferCount  = "count=exact"

	codeUniqueViolation = "23505"
	codeNoRows          = "PGRST116"
)

// apiError is the PostgREST error body.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("postgrest status %d", e.Status)
	if e.Code != "" {
		msg += " code " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func isUniqueViolation(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && (ae.Code == codeUniqueViolation || ae.Status == http.StatusConflict)
}

// client talks to a PostgREST endpoint with a service-role key.
type client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	logger     *slog.Logger
}

func newClient(baseURL, key string, timeout time.Duration, logger *slog.Logger) *client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/rest/v1",
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "rest_store")),
	}
}

func (c *client) do(ctx context.Context, method, table string, q url.Values, body any, prefer string) (*http.Response, error) {
	reqURL := c.baseURL + "/" + table
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, table, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, table, err)
	}
	c.logger.Debug("postgrest request",
		slog.String("method", method),
		slog.String("table", table),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		ae := &apiError{Status: resp.StatusCode}
		if len(raw) > 0 && json.Unmarshal(raw, ae) != nil {
			ae.Message = string(raw)
		}
		return nil, ae
	}
	return resp, nil
}

func (c *client) selectRows(ctx context.Context, table string, q url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, table, q, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

// insertRow posts one row and decodes the stored representation into out,
// which must be a pointer to a slice.
func (c *client) insertRow(ctx context.Context, table string, row any, out any) error {
	resp, err := c.do(ctx, http.MethodPost, table, nil, row, preferReturn)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode inserted %s row: %w", table, err)
	}
	return nil
}

func (c *client) updateRows(ctx context.Context, table string, q url.Values, patch any) (int64, error) {
	return c.affected(ctx, http.MethodPatch, table, q, patch)
}

func (c *client) deleteRows(ctx context.Context, table string, q url.Values) (int64, error) {
	return c.affected(ctx, http.MethodDelete, table, q, nil)
}

// affected counts the returned representation, PostgREST's way of
// reporting matched rows.
func (c *client) affected(ctx context.Context, method, table string, q url.Values, body any) (int64, error) {
	if q == nil {
		q = url.Values{}
	}
	if q.Get("select") == "" {
		q.Set("select", "id")
	}
	resp, err := c.do(ctx, method, table, q, body, preferReturn)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode %s %s result: %w", method, table, err)
	}
	return int64(len(rows)), nil
}

// count issues a HEAD with count=exact and reads the total from Content-Range.
func (c *client) count(ctx context.Context, table string, q url.Values) (int64, error) {
	resp, err := c.do(ctx, http.MethodHead, table, q, nil, preferCount)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange accepts "0-24/3573" and "*/0".
func parseContentRange(v string) (int64, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 || i == len(v)-1 {
		return 0, fmt.Errorf("malformed content range %q", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("content range %q carries no total", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed content range %q: %w", v, err)
	}
	return n, nil
}

func (c *client) close() {
	c.httpClient.CloseIdleConnections()
}

// Filter helpers build PostgREST operator expressions.

func eq(v any) string  { return "eq." + formatValue(v) }
func lt(v any) string  { return "lt." + formatValue(v) }
func gte(v any) string { return "gte." + formatValue(v) }

func in(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "in.(" + strings.Join(parts, ",") + ")"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
