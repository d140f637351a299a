// Package pocketbase implements the remote document backend over the
// record-store HTTP API: collection CRUD, password authentication and the
// health probe used by the connection test.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/errs"
	"github.com/vkuzn/expiry-keeper/internal/model"
)

// DefaultTimeout bounds every remote call. On expiry the in-flight request
// is aborted and the failure is classified as errs.ErrTimeout.
const DefaultTimeout = 10 * time.Second

// Collection names on the record store.
const (
	collectionNotes        = "documents"
	collectionObservations = "document_observations"
)

// Defaults substituted for missing optional provider fields.
const (
	defaultTitle    = "Untitled"
	defaultCategory = "General"
	defaultRole     = "user"
)

// Client is a stateless HTTP client for the record store. The base URL and
// token are passed per call so a configuration change needs no new client.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// New constructs a client with the default timeout.
func New(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger.With(zap.String("component", "pocketbase")),
	}
}

// record is the provider-side shape of a document.
type record struct {
	ID              string `json:"id"`
	Note            string `json:"Note"`
	NoteObservation string `json:"NoteObservation"`
	Category        string `json:"Category"`
	ExpirationDate  string `json:"expiration_date"`
	Created         string `json:"created"`
}

// toDocument maps provider fields to the internal shape, substituting
// defaults for missing optional fields at the deserialization boundary.
func (r record) toDocument() model.Document {
	d := model.Document{
		ID:       r.ID,
		Title:    r.Note,
		Category: r.Category,
		Details:  r.NoteObservation,
		Created:  parseTime(r.Created),
	}
	if d.Title == "" {
		d.Title = defaultTitle
	}
	if d.Category == "" {
		d.Category = defaultCategory
	}
	d.ExpirationDate = parseTime(r.ExpirationDate)
	if d.ExpirationDate.IsZero() {
		d.ExpirationDate = d.Created
	}
	return d
}

// List fetches all records sorted by creation descending.
func (c *Client) List(ctx context.Context, baseURL, token string) ([]model.Document, error) {
	reqURL := collectionURL(baseURL, collectionNotes) + "?sort=-created"
	resp, err := c.do(ctx, http.MethodGet, reqURL, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, remoteError(resp, "load documents")
	}

	var body struct {
		Items []record `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: list: %w", errs.ErrMalformedResponse, err)
	}

	docs := make([]model.Document, 0, len(body.Items))
	for _, it := range body.Items {
		docs = append(docs, it.toDocument())
	}
	return docs, nil
}

// Create translates internal fields to provider names and POSTs the record.
// After the primary write succeeds, a linked observation record carrying the
// detail text is created best-effort: its failure is logged, never returned.
func (c *Client) Create(ctx context.Context, baseURL, token string, d model.NewDocument) (model.Document, error) {
	payload := map[string]string{
		"Note":            d.Title,
		"NoteObservation": d.Details,
		"Category":        d.Category,
		"expiration_date": d.ExpirationDate.UTC().Format(time.RFC3339),
	}
	resp, err := c.do(ctx, http.MethodPost, collectionURL(baseURL, collectionNotes), token, payload)
	if err != nil {
		return model.Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Document{}, remoteError(resp, "create document")
	}

	var created record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return model.Document{}, fmt.Errorf("%w: create: %w", errs.ErrMalformedResponse, err)
	}

	c.createObservation(ctx, baseURL, token, created.ID, d.Details)

	return created.toDocument(), nil
}

// createObservation performs the auxiliary linked-record write.
func (c *Client) createObservation(ctx context.Context, baseURL, token, noteID, details string) {
	payload := map[string]string{"note_id": noteID, "details": details}
	resp, err := c.do(ctx, http.MethodPost, collectionURL(baseURL, collectionObservations), token, payload)
	if err != nil {
		c.logger.Warn("observation write failed", zap.String("note_id", noteID), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("observation write rejected",
			zap.String("note_id", noteID),
			zap.Int("status", resp.StatusCode),
		)
	}
}

// Delete removes a record by ID.
func (c *Client) Delete(ctx context.Context, baseURL, token, id string) error {
	reqURL := collectionURL(baseURL, collectionNotes) + "/" + url.PathEscape(id)
	resp, err := c.do(ctx, http.MethodDelete, reqURL, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete failed (status %d)", resp.StatusCode)
	}
	return nil
}

// AuthWithPassword performs the remote password-auth call. The identifier is
// passed through as-is: the store accepts username or email in the same field.
func (c *Client) AuthWithPassword(ctx context.Context, baseURL, identity, password string) (model.User, string, error) {
	reqURL := normalizeURL(baseURL) + "/api/collections/users/auth-with-password"
	payload := map[string]string{"identity": identity, "password": password}
	resp, err := c.do(ctx, http.MethodPost, reqURL, "", payload)
	if err != nil {
		return model.User{}, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.User{}, "", fmt.Errorf("%w: auth rejected (status %d)", errs.ErrUnauthorized, resp.StatusCode)
	}

	var body struct {
		Token  string `json:"token"`
		Record struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Name     string `json:"name"`
			Email    string `json:"email"`
			Role     string `json:"Role"`
			RoleAlt  string `json:"role"`
		} `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.User{}, "", fmt.Errorf("%w: auth: %w", errs.ErrMalformedResponse, err)
	}
	if body.Record.ID == "" {
		return model.User{}, "", fmt.Errorf("%w: auth response without record id", errs.ErrMalformedResponse)
	}

	u := model.User{
		ID:       body.Record.ID,
		Username: body.Record.Username,
		Name:     body.Record.Name,
		Email:    body.Record.Email,
		Role:     body.Record.Role,
	}
	if u.Role == "" {
		u.Role = body.Record.RoleAlt
	}
	if u.Role == "" {
		u.Role = defaultRole
	}
	if u.Username == "" {
		u.Username = u.Email
	}
	if u.Username == "" {
		u.Username = u.ID
	}
	return u, body.Token, nil
}

// Health probes /api/health at the given base URL. On 2xx it returns the
// service-reported code when the body carries one; an empty or non-JSON
// body counts as connected with no detail (code 0). No side effects on
// configuration or session state.
func (c *Client) Health(ctx context.Context, baseURL string) (int, error) {
	reqURL := normalizeURL(baseURL) + "/api/health"
	resp, err := c.do(ctx, http.MethodGet, reqURL, "", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("health check failed (status %d)", resp.StatusCode)
	}

	var body struct {
		Code int `json:"code"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) != nil {
		return 0, nil // connected, no detail
	}
	return body.Code, nil
}

// do issues one bounded request. A non-empty token goes into the
// Authorization header as-is (the store expects the raw token).
func (c *Client) do(ctx context.Context, method, reqURL, token string, payload any) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

// classify maps transport failures onto the error taxonomy: a deadline or
// client-timeout becomes errs.ErrTimeout, everything else stays a plain
// network error.
func classify(err error) error {
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", errs.ErrTimeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}

// remoteError builds an operation failure from a non-2xx response, preferring
// the service-reported message and falling back to the raw status.
func remoteError(resp *http.Response, op string) error {
	var body struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return fmt.Errorf("%s: %s", op, body.Message)
	}
	return fmt.Errorf("%s: %s", op, resp.Status)
}

func collectionURL(baseURL, collection string) string {
	return normalizeURL(baseURL) + "/api/collections/" + collection + "/records"
}

// normalizeURL trims the trailing slash so joined paths stay canonical.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}

// parseTime accepts both RFC3339 and the store's space-separated layout.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05.999Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
