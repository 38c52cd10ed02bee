package service

import (
	"fmt"
	"sort"

	"club-room-booking/internal/models"
)

// CheckCalendar cross-checks a calendar against the requests of the same room
// and date that hold slots. It returns one message per divergence; an empty
// result means the calendar is exactly the index of those requests.
func CheckCalendar(cal *models.RoomCalendar, requests []models.BookingRequest) []string {
	var problems []string
	slots := cal.SlotMap()

	byID := make(map[string]*models.BookingRequest, len(requests))
	for i := range requests {
		req := &requests[i]
		if req.RoomID != cal.RoomID || req.Date != cal.Date || !req.Status.HoldsSlots() {
			continue
		}
		byID[req.ID] = req
	}

	slotIDs := make([]int, 0, len(slots))
	for slot := range slots {
		slotIDs = append(slotIDs, slot)
	}
	sort.Ints(slotIDs)

	for _, slot := range slotIDs {
		entry := slots[slot]
		req, ok := byID[entry.RequestID]
		if !ok {
			problems = append(problems, fmt.Sprintf("slot %d held by unknown or inactive request %s", slot, entry.RequestID))
			continue
		}
		if slot < req.StartSlot || slot >= req.EndSlot {
			problems = append(problems, fmt.Sprintf("slot %d outside window [%d,%d) of request %s", slot, req.StartSlot, req.EndSlot, req.ID))
		}
		if want := slotStatusFor(req.Status); entry.Status != want {
			problems = append(problems, fmt.Sprintf("slot %d status %s, request %s is %s", slot, entry.Status, req.ID, req.Status))
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		req := byID[id]
		for slot := req.StartSlot; slot < req.EndSlot; slot++ {
			if slots[slot].RequestID != id {
				problems = append(problems, fmt.Sprintf("request %s does not own slot %d", id, slot))
			}
		}
		if req.Status.AwaitingDecision() != cal.HasPending(id) {
			problems = append(problems, fmt.Sprintf("pending set disagrees with request %s (%s)", id, req.Status))
		}
	}

	for _, id := range cal.PendingRequestIDs {
		if _, ok := byID[id]; !ok {
			problems = append(problems, fmt.Sprintf("pending set lists unknown or inactive request %s", id))
		}
	}
	return problems
}

func slotStatusFor(status models.BookingStatus) models.SlotStatus {
	switch status {
	case models.StatusModified:
		return models.SlotModified
	case models.StatusApproved:
		return models.SlotApproved
	default:
		return models.SlotPending
	}
}
