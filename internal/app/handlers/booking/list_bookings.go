package booking

import (
	"context"
	"sort"

	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/queries"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
)

const listMyBookingsKey = "booking.list_mine"

// ListMyBookingsQuery returns the caller's reservations and, for hosts, the
// reservations made on their listings. Newest first.
type ListMyBookingsQuery struct {
	UserID string `validate:"required"`
	IsHost bool
}

func (ListMyBookingsQuery) Key() string { return listMyBookingsKey }

func (ListMyBookingsQuery) RequiresPrincipal() bool { return true }

type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) (dto.ReservationCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListByRenter(execCtx, q.UserID)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if q.IsHost {
		hosted, err := unit.Bookings().ListByHost(execCtx, domainlistings.HostID(q.UserID))
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		items = append(items, hosted...)
	}

	seen := make(map[domainbooking.BookingID]struct{}, len(items))
	unique := items[:0]
	for _, b := range items {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		unique = append(unique, b)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].CreatedAt.After(unique[j].CreatedAt)
	})

	out := dto.ReservationCollection{Items: make([]dto.ReservationView, 0, len(unique))}
	for _, b := range unique {
		out.Items = append(out.Items, dto.MapReservation(b))
	}
	return out, nil
}

var _ queries.Handler[ListMyBookingsQuery, dto.ReservationCollection] = (*ListMyBookingsHandler)(nil)
