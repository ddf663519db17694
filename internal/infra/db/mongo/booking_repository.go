package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
)

const bookingsCollection = "agg_booking"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(ctx context.Context, db *mongo.Database) (*BookingRepository, error) {
	col := db.Collection(bookingsCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "hold_expires_at", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return &BookingRepository{col: col}, nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if isWriteConflict(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"renter_id": renterID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"host_id": string(hostID)}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *BookingRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"state":           string(domainbooking.StatePendingHostConfirmation),
		"hold_expires_at": bson.M{"$lte": now.UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "hold_expires_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type quoteDocument struct {
	Days              int           `bson:"days"`
	SpaceRatioPercent int           `bson:"space_ratio_percent"`
	BasePrice         moneyDocument `bson:"base_price"`
	ServiceFee        moneyDocument `bson:"service_fee"`
	InsuranceFee      moneyDocument `bson:"insurance_fee"`
	Deposit           moneyDocument `bson:"deposit"`
	Total             moneyDocument `bson:"total"`
	PolicyVersion     string        `bson:"policy_version"`
}

type bookingDocument struct {
	ID                string        `bson:"_id"`
	ListingID         string        `bson:"listing_id"`
	HostID            string        `bson:"host_id"`
	RenterID          string        `bson:"renter_id"`
	Range             rangeDocument `bson:"range"`
	RequestedCapacity int           `bson:"requested_capacity"`
	AddInsurance      bool          `bson:"add_insurance"`
	Quote             quoteDocument `bson:"quote"`
	State             string        `bson:"state"`
	HoldExpiresAt     int64         `bson:"hold_expires_at"`
	CreatedAt         int64         `bson:"created_at"`
	UpdatedAt         int64         `bson:"updated_at"`
	Version           int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	q := b.Quote
	return bookingDocument{
		ID:                string(b.ID),
		ListingID:         string(b.ListingID),
		HostID:            string(b.HostID),
		RenterID:          b.RenterID,
		Range:             rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		RequestedCapacity: b.RequestedCapacity,
		AddInsurance:      b.AddInsurance,
		Quote: quoteDocument{
			Days:              q.Days,
			SpaceRatioPercent: q.SpaceRatioPercent,
			BasePrice:         newMoneyDocument(q.BasePrice),
			ServiceFee:        newMoneyDocument(q.ServiceFee),
			InsuranceFee:      newMoneyDocument(q.InsuranceFee),
			Deposit:           newMoneyDocument(q.Deposit),
			Total:             newMoneyDocument(q.Total),
			PolicyVersion:     q.PolicyVersion,
		},
		State:         string(b.State),
		HoldExpiresAt: b.HoldExpiresAt.UnixMilli(),
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:                domainbooking.BookingID(d.ID),
		ListingID:         domainlistings.ListingID(d.ListingID),
		HostID:            domainlistings.HostID(d.HostID),
		RenterID:          d.RenterID,
		Range:             daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		RequestedCapacity: d.RequestedCapacity,
		AddInsurance:      d.AddInsurance,
		Quote: domainpricing.Quote{
			Days:              d.Quote.Days,
			SpaceRatioPercent: d.Quote.SpaceRatioPercent,
			BasePrice:         d.Quote.BasePrice.toMoney(),
			ServiceFee:        d.Quote.ServiceFee.toMoney(),
			InsuranceFee:      d.Quote.InsuranceFee.toMoney(),
			Deposit:           d.Quote.Deposit.toMoney(),
			Total:             d.Quote.Total.toMoney(),
			PolicyVersion:     d.Quote.PolicyVersion,
		},
		State:         domainbooking.BookingState(d.State),
		HoldExpiresAt: timestampToTime(d.HoldExpiresAt),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
