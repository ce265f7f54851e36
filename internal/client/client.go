// Package client talks to the storefront HTTP API and keeps client-side
// views in sync through a signal bus.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/google/uuid"
)

// APIError is a non-2xx response. It unwraps to the matching service error
// kind, so callers can test it with errors.Is(err, service.ErrNotFound).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case api.CodeUnauthenticated:
		return service.ErrUnauthenticated
	case api.CodeForbidden:
		return service.ErrForbidden
	case api.CodeNotFound:
		return service.ErrNotFound
	case api.CodeValidation:
		return service.ErrValidation
	case api.CodeConflict:
		return service.ErrConflict
	}
	return nil
}

// Client is a thin typed wrapper over the /api/v1 endpoints
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New creates a client for baseURL. Requests carry session's token, if any.
func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, header http.Header) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Code == "" {
		return &APIError{StatusCode: resp.StatusCode, Code: api.CodeInternal, Message: resp.Status}
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Error}
	if body.Details != "" {
		apiErr.Message += ": " + body.Details
	}
	if body.Code == api.CodePartialFailure {
		return &service.PartialFailureError{
			Operation: body.Operation,
			Completed: body.Completed,
			Failed:    body.Failed,
			Err:       apiErr,
		}
	}
	return apiErr
}

// IsPartialFailure reports whether err left an aggregate part way changed
func IsPartialFailure(err error) bool {
	var pf *service.PartialFailureError
	return errors.As(err, &pf)
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*service.AuthResponse, error) {
	var resp service.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", service.RegisterRequest{Name: name, Email: email, Password: password}, &resp, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*service.AuthResponse, error) {
	var resp service.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", service.LoginRequest{Email: email, Password: password}, &resp, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user, nil); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProducts fetches one catalog page
func (c *Client) ListProducts(ctx context.Context, q service.ProductQuery) (*service.ProductPage, error) {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("category", q.Category)
	set("condition", q.Condition)
	set("search", q.Search)
	set("sort", q.Sort)
	if q.MinPrice > 0 {
		v.Set("min_price", strconv.FormatInt(q.MinPrice, 10))
	}
	if q.MaxPrice > 0 {
		v.Set("max_price", strconv.FormatInt(q.MaxPrice, 10))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/products"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var page service.ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page, nil); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories, nil); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) cartCall(ctx context.Context, method, path string, body interface{}) (*models.CartView, error) {
	var view models.CartView
	if err := c.do(ctx, method, path, body, &view, nil); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) FetchCart(ctx context.Context) (*models.CartView, error) {
	return c.cartCall(ctx, http.MethodGet, "/cart", nil)
}

// AddToCart adjusts the line for productID by delta, which may be negative
func (c *Client) AddToCart(ctx context.Context, productID int64, delta int) (*models.CartView, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/add", service.AddToCartRequest{ProductID: productID, Quantity: delta})
}

func (c *Client) RemoveFromCart(ctx context.Context, productID int64) (*models.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, fmt.Sprintf("/cart/remove/%d", productID), nil)
}

func (c *Client) ClearCart(ctx context.Context) (*models.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart", nil)
}

func (c *Client) wishlistCall(ctx context.Context, method, path string, body interface{}) (*models.WishlistView, error) {
	var view models.WishlistView
	if err := c.do(ctx, method, path, body, &view, nil); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) FetchWishlist(ctx context.Context) (*models.WishlistView, error) {
	return c.wishlistCall(ctx, http.MethodGet, "/wishlist", nil)
}

func (c *Client) AddToWishlist(ctx context.Context, productID int64) (*models.WishlistView, error) {
	return c.wishlistCall(ctx, http.MethodPost, "/wishlist/add", service.AddToWishlistRequest{ProductID: productID})
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID int64) (*models.WishlistView, error) {
	return c.wishlistCall(ctx, http.MethodDelete, fmt.Sprintf("/wishlist/remove/%d", productID), nil)
}

func (c *Client) ClearWishlist(ctx context.Context) (*models.WishlistView, error) {
	return c.wishlistCall(ctx, http.MethodDelete, "/wishlist", nil)
}

func (c *Client) MoveToCart(ctx context.Context, productID int64) (*service.MoveResult, error) {
	var result service.MoveResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/wishlist/move/%d", productID), nil, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// PlaceOrder submits a checkout. A missing idempotency key is generated so
// that a retried call cannot place the order twice.
func (c *Client) PlaceOrder(ctx context.Context, req *service.PlaceOrderRequest) (*models.Order, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}
	header := http.Header{"Idempotency-Key": []string{req.IdempotencyKey}}

	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order, header); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders, nil); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*service.OrderDetails, error) {
	var details service.OrderDetails
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &details, nil); err != nil {
		return nil, err
	}
	return &details, nil
}
