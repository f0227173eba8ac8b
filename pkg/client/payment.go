package client

import (
	"context"
	"encoding/json"
	"fmt"

	"parkly/pkg/model"
)

// PaymentClient talks to the payment endpoints of the bookings service.
type PaymentClient struct {
	httpClient *HttpClient
}

func NewPaymentClient(baseUrl string) *PaymentClient {
	return &PaymentClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *PaymentClient) CreateOrder(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/payments/order", body)
}

func (c *PaymentClient) Verify(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/payments/verify", body)
}

func (c *PaymentClient) Refund(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/payments/refund", body)
}

// PostWebhook delivers a raw webhook payload with its gateway signature.
// Used by integration tests to replay gateway deliveries.
func (c *PaymentClient) PostWebhook(ctx context.Context, rawBody []byte, signature string) (*Response, error) {
	headers := map[string]string{"X-Signature": signature}
	return c.httpClient.POSTRawWithHeaders(ctx, "/api/v1/payments/webhook", rawBody, headers)
}

func (c *PaymentClient) DecodeOrder(resp *Response) (*model.Order, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode order wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var order model.Order
	if err := json.Unmarshal(wrapper.Data, &order); err != nil {
		return nil, fmt.Errorf("could not decode order json:\n%+v\n%s", resp.ToString(), err)
	}

	return &order, nil
}

func (c *PaymentClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json:\n%+v\n%s", resp.ToString(), err)
	}

	return &booking, nil
}
