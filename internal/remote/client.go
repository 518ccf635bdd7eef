// Package remote implements the typed HTTP client for the remote catalog
// authority. Every method returns a structured result instead of panicking:
// transport failures wrap errs.ErrRemoteUnavailable, non-2xx responses come
// back as *errs.RemoteError with status and body preserved, and a 404 also
// matches errs.ErrNotFoundRemotely via errors.Is.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
)

// Client talks to a catalogd instance. The zero value is not usable; use New.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New constructs a client for the given base URL (e.g. "http://localhost:8080/api").
// httpc may be nil, in which case http.DefaultClient is used; timeout policy
// belongs to the injected http.Client.
func New(base string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpc}
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(tok string) { c.token = tok }

// do issues one request and decodes a 2xx JSON body into T.
// A nil body request is sent for GET/DELETE.
func do[T any](ctx context.Context, c *Client, method, path string, in any) (T, error) {
	var zero T
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return zero, err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return zero, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w: %v", method, path, errs.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w: %v", method, path, errs.ErrRemoteUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &errs.RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if len(raw) == 0 {
		return zero, nil
	}
	if err := json.Unmarshal(raw, &zero); err != nil {
		return zero, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return zero, nil
}

// ---- products ----

// ListProducts returns every product known to the remote authority.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	return do[[]model.Product](ctx, c, http.MethodGet, "/products", nil)
}

// GetProduct fetches one product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return do[*model.Product](ctx, c, http.MethodGet, fmt.Sprintf("/products/%d", id), nil)
}

// CreateProduct creates a product. A positive p.ID is a client-assigned
// identifier the authority must honor.
func (c *Client) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return do[*model.Product](ctx, c, http.MethodPost, "/products", p)
}

// UpdateProduct replaces the product with id p.ID.
func (c *Client) UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return do[*model.Product](ctx, c, http.MethodPut, fmt.Sprintf("/products/%d", p.ID), p)
}

// DeleteProduct deletes by id. A remote 404 surfaces as *errs.RemoteError
// matching errs.ErrNotFoundRemotely; the caller decides whether that counts
// as success.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	_, err := do[struct{}](ctx, c, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil)
	return err
}

// ---- sellers ----

// ListSellers returns every seller profile.
func (c *Client) ListSellers(ctx context.Context) ([]model.Seller, error) {
	return do[[]model.Seller](ctx, c, http.MethodGet, "/sellers", nil)
}

// ListSellersByEmail runs the server-side email filter. An unimplemented
// filter endpoint may legally return an empty list rather than an error.
func (c *Client) ListSellersByEmail(ctx context.Context, email string) ([]model.Seller, error) {
	return do[[]model.Seller](ctx, c, http.MethodGet, "/sellers?email="+url.QueryEscape(email), nil)
}

// GetSeller fetches a seller profile by its user id.
func (c *Client) GetSeller(ctx context.Context, userID int64) (*model.Seller, error) {
	return do[*model.Seller](ctx, c, http.MethodGet, fmt.Sprintf("/sellers/%d", userID), nil)
}

// CreateSeller creates a seller profile under the client-assigned user id.
func (c *Client) CreateSeller(ctx context.Context, s *model.Seller) (*model.Seller, error) {
	return do[*model.Seller](ctx, c, http.MethodPost, "/sellers", s)
}

// PatchSeller applies a partial update to the seller profile.
func (c *Client) PatchSeller(ctx context.Context, userID int64, partial map[string]any) (*model.Seller, error) {
	return do[*model.Seller](ctx, c, http.MethodPatch, fmt.Sprintf("/sellers/%d", userID), partial)
}

// PutSeller replaces the seller profile with the same payload shape PATCH
// accepts. Fallback target when the authority rejects PATCH.
func (c *Client) PutSeller(ctx context.Context, userID int64, partial map[string]any) (*model.Seller, error) {
	return do[*model.Seller](ctx, c, http.MethodPut, fmt.Sprintf("/sellers/%d", userID), partial)
}

// ---- users ----

// GetUser fetches an account by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return do[*model.User](ctx, c, http.MethodGet, fmt.Sprintf("/users/%d", id), nil)
}

// UpdateUser replaces the account with id u.ID.
func (c *Client) UpdateUser(ctx context.Context, u *model.User) (*model.User, error) {
	return do[*model.User](ctx, c, http.MethodPut, fmt.Sprintf("/users/%d", u.ID), u)
}

// ---- auth (feeds the session value, see internal/session) ----

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the authenticated account.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Register creates an account. Password travels as plaintext over the
// transport; hashing happens on the authority via the hashing service.
func (c *Client) Register(ctx context.Context, u *model.User, password string) (*model.User, error) {
	payload := struct {
		model.User
		Password string `json:"password"`
	}{User: *u, Password: password}
	return do[*model.User](ctx, c, http.MethodPost, "/auth/register", payload)
}

// Login authenticates and returns a bearer token. The token is not stored
// on the client automatically; call SetToken with the result.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return do[*AuthResponse](ctx, c, http.MethodPost, "/auth/login", creds)
}
