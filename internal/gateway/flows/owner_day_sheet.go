package flows

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"parkly/internal/gateway/core"
	"parkly/pkg/config"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/model"
)

// maxBookingsPerSlotFetch bounds one slot's bookings on a day sheet. A slot
// cannot physically host more than 24 hourly bookings, so this is generous.
const maxBookingsPerSlotFetch = 50

// OwnerDaySheet builds a facility operator's view of one day: every slot
// with its bookings for that date, fetched concurrently per slot.
type OwnerDaySheet struct{}

func (OwnerDaySheet) Name() string { return "owner_day_sheet" }

func (OwnerDaySheet) Steps() []*core.Step {
	return []*core.Step{
		core.NewStep("validate_input", requireFacilityID),
		core.NewStep("resolve_window", resolveDayWindow),
		core.NewStep("fetch_facility", fetchFacility),
		core.NewStep("fetch_slots", fetchSlots),
		core.NewStep("fetch_slot_bookings", fetchSlotBookings),
		core.NewStep("assemble_day_sheet", assembleDaySheet),
	}
}

// resolveDayWindow turns the optional date input into a UTC [start, end)
// day window. Missing date means today.
func resolveDayWindow(ctx context.Context, flow *core.FlowContext) error {
	day := time.Now().UTC()
	if str := flow.ExtractString(keyDate); str != "" {
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, str)
			if err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("Param [%v] must be YYYY-MM-DD or RFC 3339", keyDate))
			}
		}
		day = parsed.UTC()
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	flow.Process[procDayStart] = start
	flow.Process[procDayEnd] = start.Add(24 * time.Hour)
	return nil
}

func fetchSlotBookings(ctx context.Context, flow *core.FlowContext) error {
	facilityID := flow.ExtractString(keyFacilityID)
	slots := flow.Process[procSlots].([]*model.Slot)
	start := flow.Process[procDayStart].(time.Time)
	end := flow.Process[procDayEnd].(time.Time)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	bySlot := make(map[string][]*model.Booking, len(slots))

	for _, slot := range slots {
		wg.Add(1)
		go func(slot *model.Slot) {
			defer wg.Done()
			core.RunLimited(func() {
				bookings, err := searchSlotBookings(ctx, flow, facilityID, slot.ID, start, end)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					return
				}
				bySlot[slot.ID] = bookings
			})
		}(slot)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	flow.Process[procSlotBookings] = bySlot
	return nil
}

func searchSlotBookings(ctx context.Context, flow *core.FlowContext, facilityID, slotID string, start, end time.Time) ([]*model.Booking, error) {
	resp, err := flow.Clients.Bookings.Search(ctx, facilityID, slotID, "", "",
		start.Format(time.RFC3339), end.Format(time.RFC3339), maxBookingsPerSlotFetch, 0)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, remoteErr("search bookings", resp)
	}
	bookings, _, err := flow.Clients.Bookings.DecodeBookings(resp)
	return bookings, err
}

type daySheetBooking struct {
	Reference string               `json:"reference"`
	UserRef   string               `json:"user_ref"`
	Plate     string               `json:"plate,omitempty"`
	Status    config.BookingStatus `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   time.Time            `json:"end_time"`
}

type daySheetRow struct {
	SlotID     string             `json:"slot_id"`
	SlotNumber string             `json:"slot_number"`
	SlotType   config.SlotType    `json:"slot_type"`
	SlotStatus config.SlotStatus  `json:"slot_status"`
	Bookings   []*daySheetBooking `json:"bookings"`
}

func assembleDaySheet(ctx context.Context, flow *core.FlowContext) error {
	facility := flow.Process[procFacility].(*model.Facility)
	slots := flow.Process[procSlots].([]*model.Slot)
	bySlot := flow.Process[procSlotBookings].(map[string][]*model.Booking)
	start := flow.Process[procDayStart].(time.Time)

	rows := make([]*daySheetRow, 0, len(slots))
	total := 0
	for _, slot := range slots {
		row := &daySheetRow{
			SlotID:     slot.ID,
			SlotNumber: slot.Number,
			SlotType:   slot.Type,
			SlotStatus: slot.Status,
			Bookings:   []*daySheetBooking{},
		}
		for _, booking := range bySlot[slot.ID] {
			row.Bookings = append(row.Bookings, &daySheetBooking{
				Reference: booking.Reference,
				UserRef:   booking.UserRef,
				Plate:     booking.Vehicle.Number,
				Status:    booking.Status,
				StartTime: booking.StartTime,
				EndTime:   booking.EndTime,
			})
		}
		sort.Slice(row.Bookings, func(i, j int) bool {
			return row.Bookings[i].StartTime.Before(row.Bookings[j].StartTime)
		})
		total += len(row.Bookings)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SlotNumber < rows[j].SlotNumber
	})

	flow.Output["facility_id"] = facility.ID
	flow.Output["facility_name"] = facility.Name
	flow.Output["date"] = start.Format("2006-01-02")
	flow.Output["rows"] = rows
	flow.Output["total_bookings"] = total
	return nil
}
