package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"parkly/pkg/client"
	"parkly/pkg/config"
	apperrors "parkly/pkg/errors"
)

const retryBaseDelay = 200 * time.Millisecond

// OrderRequest is the gateway's order creation payload. Amount is in minor
// units (paise for INR).
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type OrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// RefundRequest carries the refund amount in minor units. A zero amount asks
// the gateway for a full refund.
type RefundRequest struct {
	Amount int64             `json:"amount,omitempty"`
	Notes  map[string]string `json:"notes,omitempty"`
}

type RefundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Client is the payment gateway surface the reconciler needs. Signature
// verification happens locally; only order and refund creation go over the
// wire.
type Client interface {
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
	CreateRefund(ctx context.Context, paymentID string, req *RefundRequest) (*RefundResponse, error)
}

type httpGateway struct {
	http *client.HttpClient
	cfg  *config.Config
}

func NewClient(cfg *config.Config) Client {
	hc := client.NewHttpClientWithTimeout(cfg.PaymentBaseURL, cfg.PaymentRequestTimeout)
	hc.SetBasicAuth(cfg.PaymentKeyID, cfg.PaymentKeySecret)
	return &httpGateway{
		http: hc,
		cfg:  cfg,
	}
}

func (g *httpGateway) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	resp, err := g.postWithRetry(ctx, "/v1/orders", req)
	if err != nil {
		return nil, err
	}

	var order OrderResponse
	if err := resp.DecodeJSON(&order); err != nil {
		return nil, apperrors.GatewayError("Unexpected payment gateway response", err)
	}
	return &order, nil
}

func (g *httpGateway) CreateRefund(ctx context.Context, paymentID string, req *RefundRequest) (*RefundResponse, error) {
	resp, err := g.postWithRetry(ctx, "/v1/payments/"+paymentID+"/refund", req)
	if err != nil {
		return nil, err
	}

	var refund RefundResponse
	if err := resp.DecodeJSON(&refund); err != nil {
		return nil, apperrors.GatewayError("Unexpected payment gateway response", err)
	}
	return &refund, nil
}

// postWithRetry retries transport failures and gateway 5xx responses with
// doubling backoff. 4xx responses are the gateway rejecting the request and
// are never retried.
func (g *httpGateway) postWithRetry(ctx context.Context, path string, body any) (*client.Response, error) {
	attempts := g.cfg.PaymentMaxRetries + 1
	delay := retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := g.http.POST(ctx, path, body)
		if err == nil {
			switch {
			case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
				return resp, nil
			case resp.StatusCode >= http.StatusInternalServerError:
				lastErr = fmt.Errorf("gateway returned %d: %s", resp.StatusCode, client.GetErrorMessage(resp))
			default:
				return nil, apperrors.GatewayError(
					fmt.Sprintf("Payment gateway rejected the request: %s", client.GetErrorMessage(resp)),
					fmt.Errorf("gateway returned %d", resp.StatusCode),
				)
			}
		} else {
			lastErr = err
		}

		if attempt == attempts {
			break
		}

		g.cfg.Log.Warn("Payment gateway call failed, retrying",
			"path", path,
			"attempt", attempt,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, apperrors.GatewayTimeout("Cancelled while calling the payment gateway", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	if ctx.Err() != nil {
		return nil, apperrors.GatewayTimeout("Payment gateway did not respond in time", lastErr)
	}
	return nil, apperrors.GatewayError("Payment gateway unavailable", lastErr)
}
