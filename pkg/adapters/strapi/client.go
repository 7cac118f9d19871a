// Package strapi talks to the Strapi REST API.
package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

type tokenKey struct{}

// WithToken attaches the logged-in user's CMS token to ctx. Requests made
// with that ctx authenticate as the user instead of the API token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

type Client struct {
	baseURL string
	base    *http.Client
	service *http.Client
	logger  *zap.Logger
}

// NewClient builds a client for the Strapi instance at strapiURL. apiToken is
// the service token used when no user token is attached to the request.
func NewClient(strapiURL, apiToken string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := &http.Client{Timeout: 15 * time.Second}

	service := base
	if apiToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		service = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: apiToken,
			TokenType:   "Bearer",
		}))
		service.Timeout = base.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(strapiURL, "/") + "/api",
		base:    base,
		service: service,
		logger:  logger,
	}
}

func (c *Client) httpClient(ctx context.Context) *http.Client {
	tok := tokenFromContext(ctx)
	if tok == "" {
		return c.service
	}
	userCtx := context.WithValue(ctx, oauth2.HTTPClient, c.base)
	hc := oauth2.NewClient(userCtx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tok,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.base.Timeout
	return hc
}

// --- Columns ---

func (c *Client) ListColumns(ctx context.Context, collection string, opts domain.ListOptions) ([]domain.Column, error) {
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodGet, collection, "", encodeQuery(opts), nil)
	if err != nil {
		return nil, err
	}
	cols, err := decodeColumns(env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return cols, nil
}

func (c *Client) GetColumn(ctx context.Context, collection, id string) (*domain.Column, error) {
	q := encodeQuery(domain.ListOptions{Populate: []string{"cover", "author", "links"}})
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodGet, collection, id, q, nil)
	if err != nil {
		return nil, err
	}
	col, err := decodeColumn(env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return col, nil
}

func (c *Client) CreateColumn(ctx context.Context, collection string, data map[string]any) (*domain.Column, error) {
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodPost, collection, "", nil, data)
	if err != nil {
		return nil, err
	}
	col, err := decodeColumn(env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return col, nil
}

func (c *Client) UpdateColumn(ctx context.Context, collection, id string, data map[string]any) (*domain.Column, error) {
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodPut, collection, id, nil, data)
	if err != nil {
		return nil, err
	}
	col, err := decodeColumn(env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return col, nil
}

// --- Entries ---

func (c *Client) ListEntries(ctx context.Context, collection string, opts domain.ListOptions) ([]domain.Entry, error) {
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodGet, collection, "", encodeQuery(opts), nil)
	if err != nil {
		return nil, err
	}
	entries, err := decodeEntries(collection, env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return entries, nil
}

func (c *Client) GetEntry(ctx context.Context, collection, id string) (*domain.Entry, error) {
	q := encodeQuery(domain.ListOptions{Populate: []string{"*"}})
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodGet, collection, id, q, nil)
	if err != nil {
		return nil, err
	}
	e, err := decodeEntry(collection, env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return e, nil
}

func (c *Client) CreateEntry(ctx context.Context, collection string, data map[string]any) (*domain.Entry, error) {
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodPost, collection, "", nil, data)
	if err != nil {
		return nil, err
	}
	e, err := decodeEntry(collection, env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return e, nil
}

func (c *Client) UpdateEntry(ctx context.Context, collection, id string, data map[string]any) (*domain.Entry, error) {
	env, err := c.do(ctx, c.httpClient(ctx), http.MethodPut, collection, id, nil, data)
	if err != nil {
		return nil, err
	}
	e, err := decodeEntry(collection, env.Data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return e, nil
}

func (c *Client) DeleteEntry(ctx context.Context, collection, id string) error {
	_, err := c.do(ctx, c.httpClient(ctx), http.MethodDelete, collection, id, nil, nil)
	return err
}

// --- Auth ---

// Login exchanges credentials for a CMS JWT via /auth/local.
func (c *Client) Login(ctx context.Context, identifier, password string) (*domain.Session, error) {
	body, err := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	if err != nil {
		return nil, err
	}
	raw, err := c.send(ctx, c.base, http.MethodPost, c.baseURL+"/auth/local", body, "auth", identifier)
	if err != nil {
		return nil, err
	}

	var resp struct {
		JWT  string         `json:"jwt"`
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, decodeErr(err)
	}
	if resp.JWT == "" {
		return nil, &domain.TransportError{Message: "login response carried no token"}
	}

	session := &domain.Session{Token: resp.JWT, User: resp.User}
	// The signature belongs to the CMS; only the expiry is read here.
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.JWT, claims); err == nil && claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	} else {
		session.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	return session, nil
}

func (c *Client) Me(ctx context.Context) (map[string]any, error) {
	raw, err := c.send(ctx, c.httpClient(ctx), http.MethodGet, c.baseURL+"/users/me", nil, "users", "me")
	if err != nil {
		return nil, err
	}
	var me map[string]any
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, decodeErr(err)
	}
	return me, nil
}

// --- Transport ---

func (c *Client) do(ctx context.Context, hc *http.Client, method, collection, id string, query url.Values, data map[string]any) (*envelope, error) {
	endpoint := c.baseURL + "/" + collection
	if id != "" {
		endpoint += "/" + url.PathEscape(id)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body []byte
	if data != nil {
		var err error
		body, err = json.Marshal(map[string]any{"data": data})
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", collection, err)
		}
	}

	raw, err := c.send(ctx, hc, method, endpoint, body, collection, id)
	if err != nil {
		return nil, err
	}

	env := &envelope{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, decodeErr(err)
	}
	return env, nil
}

func (c *Client) send(ctx context.Context, hc *http.Client, method, endpoint string, body []byte, collection, id string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("cms request", zap.String("method", method), zap.String("url", endpoint))

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("cms request failed", zap.String("method", method), zap.String("url", endpoint), zap.Error(err))
		}
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &domain.TransportError{Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug("cms response", zap.String("url", endpoint), zap.Int("status", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.NotFoundError{Collection: collection, ID: id}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		te := &domain.TransportError{Status: resp.StatusCode, Message: errorMessage(raw)}
		c.logger.Error("cms error response",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("attempted_id", id),
			zap.String("message", te.Message))
		return nil, te
	}
	return raw, nil
}

func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func decodeErr(err error) error {
	return &domain.TransportError{Message: "unexpected response shape", Err: err}
}

// encodeQuery renders list options in the bracket syntax Strapi's query
// parser expects.
func encodeQuery(opts domain.ListOptions) url.Values {
	q := url.Values{}
	for i, p := range opts.Populate {
		if p == "*" {
			q.Set("populate", "*")
			break
		}
		q.Set("populate["+strconv.Itoa(i)+"]", p)
	}
	for i, s := range opts.Sort {
		q.Set("sort["+strconv.Itoa(i)+"]", s)
	}
	if opts.Limit > 0 {
		q.Set("pagination[limit]", strconv.Itoa(opts.Limit))
	}
	if opts.Start > 0 {
		q.Set("pagination[start]", strconv.Itoa(opts.Start))
	}
	for k, v := range opts.Filters {
		q.Set(k, v)
	}
	return q
}

// Ensure interface compliance
var _ ports.CMSClient = (*Client)(nil)
