// Package payment talks to the card payment provider over its REST API.
// Requests are form encoded and authenticated with the secret key as a bearer token.
package payment

import (
	"academy/config"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var ErrProvider = errors.New("payment provider error")

// CheckoutRequest describes a hosted checkout for one course purchase
type CheckoutRequest struct {
	OrderID     uint
	Reference   string
	CourseTitle string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the provider's answer to CreateCheckoutSession
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// Refund is the provider's refund object
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Gateway is implemented by Client and by fakes in tests
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string) (*Refund, error)
}

// Provider is the gateway used by controllers
var Provider Gateway

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a resty-backed Gateway
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, secretKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &Client{http: c}
}

// Init builds Provider from configuration
func Init(cfg *config.Config) Gateway {
	Provider = NewClient(cfg.PaymentApiURL, cfg.PaymentSecretKey)
	return Provider
}

// MinorUnits converts an amount to the smallest currency unit (cents)
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	form := map[string]string{
		"mode":                                          "payment",
		"client_reference_id":                           req.Reference,
		"success_url":                                   req.SuccessURL,
		"cancel_url":                                    req.CancelURL,
		"metadata[order_id]":                            strconv.FormatUint(uint64(req.OrderID), 10),
		"metadata[reference]":                           req.Reference,
		"line_items[0][quantity]":                       "1",
		"line_items[0][price_data][currency]":           req.Currency,
		"line_items[0][price_data][unit_amount]":        strconv.FormatInt(MinorUnits(req.Amount), 10),
		"line_items[0][price_data][product_data][name]": req.CourseTitle,
	}
	if req.Email != "" {
		form["customer_email"] = req.Email
	}

	var session CheckoutSession
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.Reference).
		SetFormData(form).
		SetResult(&session).
		SetError(&apiErr).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrProvider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: create checkout session: %d %s", ErrProvider, resp.StatusCode(), apiErr.Error.Message)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: checkout session response missing id or url", ErrProvider)
	}
	return &session, nil
}

func (c *Client) Refund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	if paymentIntentID == "" {
		return nil, fmt.Errorf("%w: payment intent is required", ErrProvider)
	}

	var refund Refund
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", "refund-"+paymentIntentID).
		SetFormData(map[string]string{"payment_intent": paymentIntentID}).
		SetResult(&refund).
		SetError(&apiErr).
		Post("/v1/refunds")
	if err != nil {
		return nil, fmt.Errorf("%w: refund: %v", ErrProvider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: refund: %d %s", ErrProvider, resp.StatusCode(), apiErr.Error.Message)
	}
	return &refund, nil
}

var _ Gateway = (*Client)(nil)
