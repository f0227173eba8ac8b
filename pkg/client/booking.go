package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"parkly/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) Create(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", body)
}

func (c *BookingClient) GetAll(ctx context.Context, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) Search(ctx context.Context, facilityID, slotID, userRef, status, startTime, endTime string, limit int, offset int64) (*Response, error) {
	q := url.Values{}

	if facilityID != "" {
		q.Set("facility_id", facilityID)
	}
	if slotID != "" {
		q.Set("slot_id", slotID)
	}
	if userRef != "" {
		q.Set("user_ref", userRef)
	}
	if status != "" {
		q.Set("status", status)
	}
	if startTime != "" {
		q.Set("start_time", startTime)
	}
	if endTime != "" {
		q.Set("end_time", endTime)
	}

	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/bookings/search?" + q.Encode()
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id)
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) GetByReference(ctx context.Context, reference string) (*Response, error) {
	path := "/api/v1/bookings/reference/" + url.PathEscape(reference)
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) Cancel(ctx context.Context, id string, body any) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/cancel"
	return c.httpClient.POST(ctx, path, body)
}

func (c *BookingClient) CheckIn(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/checkin"
	return c.httpClient.POST(ctx, path, nil)
}

func (c *BookingClient) CheckOut(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/checkout"
	return c.httpClient.POST(ctx, path, nil)
}

func (c *BookingClient) UpdateStatus(ctx context.Context, id string, body any) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/status"
	return c.httpClient.PATCH(ctx, path, body)
}

func (c *BookingClient) CreateRaw(ctx context.Context, rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, "/api/v1/bookings", rawBody)
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
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

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return bookings, metadata, nil
}
