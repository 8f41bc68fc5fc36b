// Package client is the storefront's HTTP client for the bakery API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/wire"
	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     []FieldError
}

type FieldError = wire.FieldError

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsTransient reports whether err is worth retrying by the user: network
// failures, timeouts, 429 and 5xx responses. 4xx answers and caller
// cancellation are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OptionGroups fetches the option groups of a product.
func (c *Client) OptionGroups(ctx context.Context, productID int64) ([]catalog.OptionGroup, error) {
	var resp []wire.OptionGroupResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/options/%d", productID), nil, nil, &resp); err != nil {
		return nil, err
	}

	groups := make([]catalog.OptionGroup, len(resp))
	for i, g := range resp {
		opts := make([]catalog.Option, len(g.Options))
		for j, o := range g.Options {
			price, err := decimal.NewFromString(o.Price)
			if err != nil {
				return nil, fmt.Errorf("client: option %d price %q: %w", o.ID, o.Price, err)
			}
			opts[j] = catalog.Option{
				ID:               o.ID,
				GroupID:          g.ID,
				Name:             o.Name,
				Price:            price,
				ReplaceBasePrice: o.ReplaceBasePrice,
				DisplayOrder:     o.DisplayOrder,
				Active:           true,
			}
		}
		groups[i] = catalog.OptionGroup{
			ID:            g.ID,
			ProductID:     g.ProductID,
			Name:          g.Name,
			Required:      g.Required,
			SelectionType: catalog.SelectionType(g.SelectionType),
			MinSelect:     g.MinSelect,
			MaxSelect:     g.MaxSelect,
			DisplayOrder:  g.DisplayOrder,
			Options:       opts,
		}
	}
	return groups, nil
}

// DeliveryCities fetches the active delivery fee table.
func (c *Client) DeliveryCities(ctx context.Context) ([]delivery.City, error) {
	var resp []wire.CityResponse
	if err := c.do(ctx, http.MethodGet, "/delivery-cities", nil, nil, &resp); err != nil {
		return nil, err
	}

	cities := make([]delivery.City, len(resp))
	for i, r := range resp {
		fee, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("client: city %q price %q: %w", r.City, r.Price, err)
		}
		cities[i] = delivery.City{Name: r.City, Fee: fee, Active: true}
	}
	return cities, nil
}

// CreateOrder submits an order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, req wire.CreateOrderRequest, idempotencyKey string) (string, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(requestctx.HeaderXIdempotencyKey, idempotencyKey)
	}

	var resp wire.CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", req, headers, &resp); err != nil {
		return "", err
	}
	if resp.OrderID == "" {
		return "", errors.New("client: create order: response carried no order id")
	}
	return resp.OrderID, nil
}

// ListOrders fetches orders; status may be empty for all.
func (c *Client) ListOrders(ctx context.Context, status string) ([]wire.OrderResponse, error) {
	path := "/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp []wire.OrderResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateStatus asks the server to move an order to status.
func (c *Client) UpdateStatus(ctx context.Context, orderID, status string) (*wire.OrderResponse, error) {
	var resp wire.OrderResponse
	body := wire.UpdateStatusRequest{OrderID: orderID, Status: status}
	if err := c.do(ctx, http.MethodPatch, "/orders", body, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers http.Header, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestctx.RequestID(ctx); id != "" {
		req.Header.Set(requestctx.HeaderXRequestId, id)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("client: read %s %s: %w", method, path, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode, Code: http.StatusText(res.StatusCode)}
		var eb struct {
			Error   string       `json:"error"`
			Message string       `json:"message"`
			Fields  []FieldError `json:"fields"`
		}
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			apiErr.Code, apiErr.Message, apiErr.Fields = eb.Error, eb.Message, eb.Fields
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}
