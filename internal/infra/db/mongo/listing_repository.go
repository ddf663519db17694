package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "spacio/internal/domain/listings"
	"spacio/internal/domain/shared/money"
)

const listingsCollection = "agg_listing"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(ctx context.Context, db *mongo.Database) (*ListingRepository, error) {
	col := db.Collection(listingsCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "host_id", Value: 1}}},
		{Keys: bson.D{{Key: "size", Value: 1}, {Key: "price.amount", Value: 1}}},
		{Keys: bson.D{{Key: "zip_code", Value: 1}, {Key: "rating", Value: -1}}},
	})
	if err != nil {
		return nil, err
	}
	return &ListingRepository{col: col}, nil
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save writes listing if its stored version still matches. A new listing has version zero
// and is inserted through the upsert; a duplicate key then means someone else won.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if isWriteConflict(err) {
			return domainlistings.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainlistings.ErrConcurrentUpdate
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	filter := searchFilter(opts)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	cur, err := r.col.Find(ctx, filter, searchOptions(opts))
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return domainlistings.SearchResult{}, err
	}
	items := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toAggregate())
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

func searchFilter(opts domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if opts.Host != "" {
		filter["host_id"] = string(opts.Host)
	}
	if opts.ZipCode != "" {
		filter["zip_code"] = opts.ZipCode
	}
	if opts.Size != "" {
		filter["size"] = string(opts.Size)
	}
	price := bson.M{}
	if opts.PriceMinCents > 0 {
		price["$gte"] = opts.PriceMinCents
	}
	if opts.PriceMaxCents > 0 {
		price["$lte"] = opts.PriceMaxCents
	}
	if len(price) > 0 {
		filter["price.amount"] = price
	}
	return filter
}

// searchOptions mirrors domainlistings.SortForSearch.
func searchOptions(opts domainlistings.SearchParams) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(opts.Limit))
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type listingDocument struct {
	ID                string        `bson:"_id"`
	HostID            string        `bson:"host_id"`
	Title             string        `bson:"title"`
	Description       string        `bson:"description"`
	Size              string        `bson:"size"`
	Price             moneyDocument `bson:"price"`
	TotalCapacity     int           `bson:"total_capacity"`
	AvailableCapacity int           `bson:"available_capacity"`
	AvailableFrom     *int64        `bson:"available_from,omitempty"`
	AvailableTo       *int64        `bson:"available_to,omitempty"`
	BookingDeadline   *int64        `bson:"booking_deadline,omitempty"`
	AddressSummary    string        `bson:"address_summary"`
	ZipCode           string        `bson:"zip_code"`
	Images            []string      `bson:"images"`
	Rating            float64       `bson:"rating"`
	PolicyVersion     string        `bson:"policy_version"`
	CreatedAt         int64         `bson:"created_at"`
	UpdatedAt         int64         `bson:"updated_at"`
	Version           int64         `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:                string(l.ID),
		HostID:            string(l.Host),
		Title:             l.Title,
		Description:       l.Description,
		Size:              string(l.Size),
		Price:             newMoneyDocument(l.PricePerMonth),
		TotalCapacity:     l.TotalCapacity,
		AvailableCapacity: l.AvailableCapacity,
		AvailableFrom:     optionalTimestamp(l.AvailableFrom),
		AvailableTo:       optionalTimestamp(l.AvailableTo),
		BookingDeadline:   optionalTimestamp(l.BookingDeadline),
		AddressSummary:    l.AddressSummary,
		ZipCode:           l.ZipCode,
		Images:            l.Images,
		Rating:            l.Rating,
		PolicyVersion:     l.PolicyVersion,
		CreatedAt:         l.CreatedAt.UnixMilli(),
		UpdatedAt:         l.UpdatedAt.UnixMilli(),
		Version:           l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:                domainlistings.ListingID(d.ID),
		Host:              domainlistings.HostID(d.HostID),
		Title:             d.Title,
		Description:       d.Description,
		Size:              domainlistings.Size(d.Size),
		PricePerMonth:     d.Price.toMoney(),
		TotalCapacity:     d.TotalCapacity,
		AvailableCapacity: d.AvailableCapacity,
		AvailableFrom:     optionalTime(d.AvailableFrom),
		AvailableTo:       optionalTime(d.AvailableTo),
		BookingDeadline:   optionalTime(d.BookingDeadline),
		AddressSummary:    d.AddressSummary,
		ZipCode:           d.ZipCode,
		Images:            d.Images,
		Rating:            d.Rating,
		PolicyVersion:     d.PolicyVersion,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
