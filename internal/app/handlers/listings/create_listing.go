package listings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/outbox"
	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/money"
)

const createListingKey = "listings.create"

type CreateListingCommand struct {
	HostID          string     `validate:"required"`
	Title           string     `validate:"required,max=140"`
	Description     string     `validate:"max=4000"`
	Size            string     `validate:"required,oneof=S M L s m l"`
	PricePerMonth   float64    `validate:"gt=0"`
	SizeSqft        int        `validate:"gt=0,lte=1000000"`
	AvailableFrom   *time.Time `validate:"omitempty"`
	AvailableTo     *time.Time `validate:"omitempty"`
	BookingDeadline *time.Time `validate:"omitempty"`
	AddressSummary  string     `validate:"max=280"`
	ZipCode         string     `validate:"omitempty,max=10"`
	Images          []string   `validate:"max=12,dive,required,max=2048"`
	Rating          float64    `validate:"gte=0,lte=5"`
}

func (CreateListingCommand) Key() string { return createListingKey }

func (CreateListingCommand) RequiresHost() bool { return true }

type CreateListingHandler struct {
	Policies *domainpricing.PolicyBook
	Currency string
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.ListingView, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	size, err := domainlistings.ParseSize(cmd.Size)
	if err != nil {
		return nil, err
	}
	price, err := money.FromFloat(cmd.PricePerMonth, h.Currency)
	if err != nil {
		return nil, err
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:              domainlistings.ListingID(uuid.NewString()),
		Host:            domainlistings.HostID(cmd.HostID),
		Title:           cmd.Title,
		Description:     cmd.Description,
		Size:            size,
		PricePerMonth:   price,
		TotalCapacity:   cmd.SizeSqft,
		AvailableFrom:   cmd.AvailableFrom,
		AvailableTo:     cmd.AvailableTo,
		BookingDeadline: cmd.BookingDeadline,
		AddressSummary:  cmd.AddressSummary,
		ZipCode:         cmd.ZipCode,
		Images:          cmd.Images,
		Rating:          cmd.Rating,
		PolicyVersion:   h.Policies.Current().Version,
		Now:             support.Now(h.Clock),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Encoder, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "host_id", cmd.HostID, "sqft", listing.TotalCapacity)
	}
	view := dto.MapListing(listing)
	return &view, nil
}

var _ commands.Handler[CreateListingCommand, *dto.ListingView] = (*CreateListingHandler)(nil)
