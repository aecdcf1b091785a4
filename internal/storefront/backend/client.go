// Package backend talks to the order API on behalf of the storefront.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	ordermapper "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	apierrors "github.com/Apurer/ruchi-orders/internal/shared/errors"
)

const maxBodyBytes = 4 << 20

// ErrOffline is returned when the backend is unreachable or the interception
// layer answered with its offline placeholder.
var ErrOffline = errors.New("backend offline")

// Client is a thin HTTP client for the order API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse backend URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// OrderList is the decoded GET /get-orders response.
type OrderList struct {
	Orders  []*ordersdomain.Order
	Message string
}

// Health returns the liveness message served at "/".
func (c *Client) Health(ctx context.Context) (string, error) {
	res, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return "", decodeError(res)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read health response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// ListOrders fetches every order. The body is either a plain list, the
// {message, orders} envelope sent for an empty store, or {error} when the
// interception layer is answering offline.
func (c *Client) ListOrders(ctx context.Context) (OrderList, error) {
	res, err := c.do(ctx, http.MethodGet, "/get-orders", nil)
	if err != nil {
		return OrderList{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return OrderList{}, decodeError(res)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return OrderList{}, fmt.Errorf("read orders response: %w", err)
	}
	return decodeOrderList(body)
}

// CreateOrder posts the order form.
func (c *Client) CreateOrder(ctx context.Context, in ordermapper.CreateOrder) (ordermapper.CreatedOrder, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return ordermapper.CreatedOrder{}, err
	}
	res, err := c.do(ctx, http.MethodPost, "/add-order", payload)
	if err != nil {
		return ordermapper.CreatedOrder{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return ordermapper.CreatedOrder{}, decodeError(res)
	}
	var created ordermapper.CreatedOrder
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return ordermapper.CreatedOrder{}, fmt.Errorf("decode created order: %w", err)
	}
	return created, nil
}

// MarkDelivered flags the order as delivered and returns the server message.
func (c *Client) MarkDelivered(ctx context.Context, id string) (string, error) {
	return c.command(ctx, http.MethodPost, "/mark-order-done/"+url.PathEscape(id))
}

// DeleteOrder removes the order and returns the server message.
func (c *Client) DeleteOrder(ctx context.Context, id string) (string, error) {
	return c.command(ctx, http.MethodDelete, "/delete-order/"+url.PathEscape(id))
}

func (c *Client) command(ctx context.Context, method, path string) (string, error) {
	res, err := c.do(ctx, method, path, nil)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return "", decodeError(res)
	}
	var ack struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return ack.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrOffline, err)
	}
	return res, nil
}

func decodeOrderList(body []byte) (OrderList, error) {
	body = bytes.TrimSpace(body)
	var views []ordermapper.Order
	var list OrderList
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &views); err != nil {
			return OrderList{}, fmt.Errorf("decode orders: %w", err)
		}
	} else {
		var envelope struct {
			Message string              `json:"message"`
			Orders  []ordermapper.Order `json:"orders"`
			Error   string              `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return OrderList{}, fmt.Errorf("decode orders: %w", err)
		}
		if envelope.Error != "" {
			return OrderList{}, fmt.Errorf("%w: %s", ErrOffline, envelope.Error)
		}
		views = envelope.Orders
		list.Message = envelope.Message
	}
	list.Orders = make([]*ordersdomain.Order, 0, len(views))
	for _, view := range views {
		order, err := ordermapper.ToDomain(view)
		if err != nil {
			return OrderList{}, fmt.Errorf("decode order %q: %w", view.ID, err)
		}
		list.Orders = append(list.Orders, order)
	}
	return list, nil
}

// decodeError turns a failed response into a ProblemDetail. The interception
// layer's plain-text 503 maps to ErrOffline.
func decodeError(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	mediaType, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if res.StatusCode == http.StatusServiceUnavailable && mediaType == "text/plain" {
		return fmt.Errorf("%w: %s", ErrOffline, strings.TrimSpace(string(body)))
	}
	var problem apierrors.ProblemDetail
	if len(body) > 0 {
		_ = json.Unmarshal(body, &problem)
	}
	if problem.Status == 0 {
		problem.Status = res.StatusCode
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(res.StatusCode)
	}
	return problem
}
