package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"parkly/pkg/model"
)

type FacilityClient struct {
	httpClient *HttpClient
}

func NewFacilityClient(baseUrl string) *FacilityClient {
	return &FacilityClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *FacilityClient) Create(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/facilities", body)
}

func (c *FacilityClient) GetAll(ctx context.Context, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/facilities?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(ctx, path)
}

func (c *FacilityClient) GetByID(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/facilities/id/" + url.PathEscape(id)
	return c.httpClient.GET(ctx, path)
}

func (c *FacilityClient) Update(ctx context.Context, id string, body any) (*Response, error) {
	path := "/api/v1/facilities/id/" + url.PathEscape(id)
	return c.httpClient.PATCH(ctx, path, body)
}

func (c *FacilityClient) AddSlot(ctx context.Context, facilityID string, body any) (*Response, error) {
	path := "/api/v1/facilities/id/" + url.PathEscape(facilityID) + "/slots"
	return c.httpClient.POST(ctx, path, body)
}

func (c *FacilityClient) ListSlots(ctx context.Context, facilityID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/facilities/id/%s/slots?limit=%d&offset=%d", url.PathEscape(facilityID), limit, offset)
	return c.httpClient.GET(ctx, path)
}

func (c *FacilityClient) UpdateSlotStatus(ctx context.Context, facilityID, slotID string, body any) (*Response, error) {
	path := "/api/v1/facilities/id/" + url.PathEscape(facilityID) + "/slots/" + url.PathEscape(slotID) + "/status"
	return c.httpClient.PATCH(ctx, path, body)
}

func (c *FacilityClient) GetAvailability(ctx context.Context, facilityID string) (*Response, error) {
	path := "/api/v1/facilities/id/" + url.PathEscape(facilityID) + "/availability"
	return c.httpClient.GET(ctx, path)
}

func (c *FacilityClient) CreateRaw(ctx context.Context, rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, "/api/v1/facilities", rawBody)
}

func (c *FacilityClient) DecodeFacility(resp *Response) (*model.Facility, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode facility wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var facility model.Facility
	if err := json.Unmarshal(wrapper.Data, &facility); err != nil {
		return nil, fmt.Errorf("could not decode facility json:\n%+v\n%s", resp.ToString(), err)
	}

	return &facility, nil
}

func (c *FacilityClient) DecodeFacilities(resp *Response) ([]*model.Facility, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var facilities []*model.Facility
	if err := json.Unmarshal(wrapper.Data, &facilities); err != nil {
		return nil, nil, fmt.Errorf("could not decode facility list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return facilities, metadata, nil
}

func (c *FacilityClient) DecodeSlots(resp *Response) ([]*model.Slot, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var slots []*model.Slot
	if err := json.Unmarshal(wrapper.Data, &slots); err != nil {
		return nil, nil, fmt.Errorf("could not decode slot list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return slots, metadata, nil
}

func (c *FacilityClient) DecodeSlot(resp *Response) (*model.Slot, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode slot wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var slot model.Slot
	if err := json.Unmarshal(wrapper.Data, &slot); err != nil {
		return nil, fmt.Errorf("could not decode slot json:\n%+v\n%s", resp.ToString(), err)
	}

	return &slot, nil
}

func (c *FacilityClient) DecodeAvailability(resp *Response) (*model.Availability, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode availability wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var availability model.Availability
	if err := json.Unmarshal(wrapper.Data, &availability); err != nil {
		return nil, fmt.Errorf("could not decode availability json:\n%+v\n%s", resp.ToString(), err)
	}

	return &availability, nil
}
