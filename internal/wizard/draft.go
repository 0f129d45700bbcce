package wizard

import (
	"fmt"
	"strconv"

	"github.com/khamraev/truck2terminal/internal/api"
)

// Collected-field keys of the route wizard.
const (
	FieldTruckNumber   = "truck_number"
	FieldStartLocation = "start_location"
	FieldTerminalID    = "terminal_id"
	FieldContainerName = "container_name"
	FieldContainerSize = "container_size"
	FieldContainerType = "container_type"
	FieldETA           = "eta"
)

// routeFieldOrder is the wizard path order, used for summary rendering and
// completeness checks.
var routeFieldOrder = []string{
	FieldTruckNumber,
	FieldStartLocation,
	FieldTerminalID,
	FieldContainerName,
	FieldContainerSize,
	FieldContainerType,
	FieldETA,
}

// RouteDraft is a fully populated route ready for finalization. It can only
// be obtained through BuildRouteDraft, so a partially collected session can
// never reach the backend.
type RouteDraft struct {
	TruckNumber   string
	StartLocation string
	TerminalID    int64
	ContainerName string
	ContainerSize string
	ContainerType string
	ETA           string
}

// BuildRouteDraft validates that every route field was collected and returns
// the typed draft. The first missing field is reported.
func BuildRouteDraft(fields map[string]string) (*RouteDraft, error) {
	for _, key := range routeFieldOrder {
		if fields[key] == "" {
			return nil, fmt.Errorf("wizard: route draft missing field %q", key)
		}
	}
	terminalID, err := strconv.ParseInt(fields[FieldTerminalID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("wizard: route draft terminal id %q: %w", fields[FieldTerminalID], err)
	}
	return &RouteDraft{
		TruckNumber:   fields[FieldTruckNumber],
		StartLocation: fields[FieldStartLocation],
		TerminalID:    terminalID,
		ContainerName: fields[FieldContainerName],
		ContainerSize: fields[FieldContainerSize],
		ContainerType: fields[FieldContainerType],
		ETA:           fields[FieldETA],
	}, nil
}

// Request converts the draft into the finalize payload.
func (d *RouteDraft) Request(telegramID int64) api.RouteRequest {
	return api.RouteRequest{
		TelegramID:    telegramID,
		TruckNumber:   d.TruckNumber,
		StartLocation: d.StartLocation,
		TerminalID:    d.TerminalID,
		ContainerName: d.ContainerName,
		ContainerSize: d.ContainerSize,
		ContainerType: d.ContainerType,
		ETA:           d.ETA,
	}
}
