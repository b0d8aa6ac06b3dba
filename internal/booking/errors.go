package booking

import "errors"

var (
	// ErrInvalidDuration rejects slots outside the 30-minute to 3-hour window.
	ErrInvalidDuration = errors.New("booking duration must be between 30 minutes and 3 hours")

	// ErrSlotUnavailable is the conflict outcome: another confirmed order
	// overlaps the requested slot.
	ErrSlotUnavailable = errors.New("machine is not available for the selected time slot")

	// ErrMachineUnavailable means the machine itself is out of service.
	ErrMachineUnavailable = errors.New("machine is currently unavailable for maintenance")

	// ErrLinkIncomplete reports that the order and payment both exist but the
	// back-reference write failed. The booking itself succeeded; callers must
	// not present this as a failed booking.
	ErrLinkIncomplete = errors.New("order and payment created but not linked")
)
