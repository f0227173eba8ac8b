package flows

import (
	"context"
	"net/http"

	"parkly/internal/gateway/core"
	"parkly/pkg/config"
	"parkly/pkg/model"
)

// FacilityOverview aggregates a facility's profile, slot inventory, and
// live availability into one response.
type FacilityOverview struct{}

func (FacilityOverview) Name() string { return "facility_overview" }

func (FacilityOverview) Steps() []*core.Step {
	return []*core.Step{
		core.NewStep("validate_input", requireFacilityID),
		core.NewStep("fetch_facility", fetchFacility),
		core.NewStep("fetch_slots", fetchSlots),
		core.NewStep("fetch_availability", fetchAvailability),
		core.NewStep("assemble_overview", assembleOverview),
	}
}

func fetchAvailability(ctx context.Context, flow *core.FlowContext) error {
	facilityID := flow.ExtractString(keyFacilityID)
	resp, err := flow.Clients.Facilities.GetAvailability(ctx, facilityID)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return remoteErr("fetch availability", resp)
	}
	availability, err := flow.Clients.Facilities.DecodeAvailability(resp)
	if err != nil {
		return err
	}
	flow.Process[procAvailability] = availability
	return nil
}

type slotTypeSummary struct {
	Total     int           `json:"total"`
	Available int           `json:"available"`
	Slots     []*model.Slot `json:"slots"`
}

func assembleOverview(ctx context.Context, flow *core.FlowContext) error {
	facility := flow.Process[procFacility].(*model.Facility)
	slots := flow.Process[procSlots].([]*model.Slot)
	availability := flow.Process[procAvailability].(*model.Availability)

	byType := map[config.SlotType]*slotTypeSummary{}
	for _, slot := range slots {
		summary, ok := byType[slot.Type]
		if !ok {
			summary = &slotTypeSummary{}
			byType[slot.Type] = summary
		}
		summary.Total++
		if slot.Status == config.SlotAvailable {
			summary.Available++
		}
		summary.Slots = append(summary.Slots, slot)
	}

	flow.Output["facility"] = facility
	flow.Output["availability"] = availability
	flow.Output["slot_types"] = byType
	return nil
}
