package flows

import (
	"context"
	"fmt"
	"net/http"

	"parkly/internal/gateway/core"
	"parkly/pkg/client"
	"parkly/pkg/config"
	"parkly/pkg/model"
)

// Input and Process keys shared across flows.
const (
	keyFacilityID = "facility_id"
	keyBooking    = "booking"
	keyMethod     = "method"
	keyDate       = "date"

	procFacility     = "facility"
	procSlots        = "slots"
	procAvailability = "availability"
	procBooking      = "booking"
	procDayStart     = "day_start"
	procDayEnd       = "day_end"
	procSlotBookings = "slot_bookings"
)

func requireFacilityID(ctx context.Context, flow *core.FlowContext) error {
	if core.IsMissing(flow.ExtractString(keyFacilityID)) {
		return core.MissingParamErr(keyFacilityID)
	}
	return nil
}

func remoteErr(operation string, resp *client.Response) error {
	return fmt.Errorf("%s: status %d: %s", operation, resp.StatusCode, client.GetErrorMessage(resp))
}

func fetchFacility(ctx context.Context, flow *core.FlowContext) error {
	facilityID := flow.ExtractString(keyFacilityID)
	resp, err := flow.Clients.Facilities.GetByID(ctx, facilityID)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return remoteErr("fetch facility", resp)
	}
	facility, err := flow.Clients.Facilities.DecodeFacility(resp)
	if err != nil {
		return err
	}
	flow.Process[procFacility] = facility
	return nil
}

// fetchSlots pages through the facility's full slot inventory.
func fetchSlots(ctx context.Context, flow *core.FlowContext) error {
	facilityID := flow.ExtractString(keyFacilityID)

	var all []*model.Slot
	var offset int64
	for {
		resp, err := flow.Clients.Facilities.ListSlots(ctx, facilityID, config.DefaultPaginationLimit, offset)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return remoteErr("list slots", resp)
		}
		slots, meta, err := flow.Clients.Facilities.DecodeSlots(resp)
		if err != nil {
			return err
		}
		all = append(all, slots...)
		offset += int64(len(slots))
		if len(slots) == 0 || offset >= meta.TotalCount {
			break
		}
	}

	flow.Process[procSlots] = all
	return nil
}
