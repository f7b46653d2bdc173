package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// ServicesCollection is the collection listings are kept in.
const ServicesCollection = "services"

// MongoStore keeps listings in a MongoDB collection keyed by the listing id.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// OpenMongo connects to uri and returns a store over database.services.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("catalog/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("catalog/mongo: ping: %w", err)
	}
	s := NewMongoStore(client, database)
	if err := s.Migrate(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	zap.L().Debug("Catalog store connected", zap.String("driver", "mongo"), zap.String("database", database))
	return s, nil
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, col: client.Database(database).Collection(ServicesCollection)}
}

// Migrate creates the unique index on the listing id.
func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "provider", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("catalog/mongo: migrate indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*model.Listing, error) {
	var doc listingDoc
	err := s.col.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("catalog/mongo: get listing: %w", err)
	}
	return fromListingDoc(&doc)
}

func (s *MongoStore) List(ctx context.Context) ([]*model.Listing, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("catalog/mongo: list listings: %w", err)
	}
	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("catalog/mongo: decode listings: %w", err)
	}
	out := make([]*model.Listing, 0, len(docs))
	for i := range docs {
		l, err := fromListingDoc(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *MongoStore) Put(ctx context.Context, l *model.Listing) error {
	doc, err := toListingDoc(l)
	if err != nil {
		return err
	}
	_, err = s.col.ReplaceOne(ctx, bson.M{"id": l.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("catalog/mongo: put listing %s: %w", l.ID, err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// listingDoc is the stored form of a listing. Field names follow the
// documents written by the web marketplace.
type listingDoc struct {
	ID                string         `bson:"id"`
	LedgerID          int64          `bson:"ledgerId,omitempty"`
	Name              string         `bson:"name"`
	Description       string         `bson:"description"`
	FullDescription   string         `bson:"fullDescription,omitempty"`
	Provider          string         `bson:"provider"`
	ProviderAddress   string         `bson:"providerAddress,omitempty"`
	Category          string         `bson:"category"`
	Tags              []string       `bson:"tags"`
	Verified          bool           `bson:"is_verified"`
	AcceptingNewUsers *bool          `bson:"acceptingNewUsers,omitempty"`
	BasePrice         int64          `bson:"basePrice"`
	LegacyPriceMs     *float64       `bson:"price_ms,omitempty"`
	Currency          string         `bson:"currency,omitempty"`
	TokensAccepted    []string       `bson:"tokensAccepted,omitempty"`
	Endpoint          string         `bson:"endpoint,omitempty"`
	DocsURL           string         `bson:"docsUrl,omitempty"`
	MetadataURI       string         `bson:"metadataUri,omitempty"`
	FreeTier          *freeTierDoc   `bson:"freeTier,omitempty"`
	Packages          []packageDoc   `bson:"requestPackages,omitempty"`
	Tiers             []tierDoc      `bson:"pricingTiers,omitempty"`
	Enterprise        *enterpriseDoc `bson:"enterpriseTier,omitempty"`
	CreatedAt         time.Time      `bson:"createdAt"`
	UpdatedAt         time.Time      `bson:"updatedAt"`
}

type priceDoc struct {
	Units *int64 `bson:"units,omitempty"`
	Tag   string `bson:"tag,omitempty"`
	Label string `bson:"label,omitempty"`
}

// UnmarshalBSONValue accepts the document form and the plain string prices
// ("4 SUI", "Free") the web marketplace writes.
func (p *priceDoc) UnmarshalBSONValue(typ byte, data []byte) error {
	rv := bson.RawValue{Type: bson.Type(typ), Value: data}
	if rv.Type == bson.TypeNull || rv.Type == bson.TypeUndefined {
		*p = priceDoc{}
		return nil
	}
	if label, ok := rv.StringValueOK(); ok {
		*p = priceDoc{Label: label}
		return nil
	}
	type plain priceDoc
	var d plain
	if err := rv.Unmarshal(&d); err != nil {
		return err
	}
	*p = priceDoc(d)
	return nil
}

type freeTierDoc struct {
	Name     string   `bson:"name"`
	Requests int64    `bson:"requests"`
	Features []string `bson:"features,omitempty"`
	Forever  bool     `bson:"isForever"`
}

type packageDoc struct {
	Name       string   `bson:"name"`
	Requests   int64    `bson:"requests"`
	Price      priceDoc `bson:"price"`
	PerRequest string   `bson:"pricePerRequest,omitempty"`
}

type tierDoc struct {
	Name     string   `bson:"name"`
	Price    priceDoc `bson:"price"`
	Requests string   `bson:"requests,omitempty"`
	Features []string `bson:"features,omitempty"`
	Type     string   `bson:"type,omitempty"`
	Period   string   `bson:"period,omitempty"`
}

type enterpriseDoc struct {
	Name         string   `bson:"name"`
	Features     []string `bson:"features,omitempty"`
	ContactLabel string   `bson:"contactLabel,omitempty"`
}

var errTooLarge = errors.New("catalog/mongo: value exceeds int64")

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, errTooLarge
	}
	return int64(v), nil
}

func toPriceDoc(p model.Price) (priceDoc, error) {
	d := priceDoc{Tag: string(p.Tag), Label: p.Label}
	if p.Units != nil {
		u, err := toInt64(uint64(*p.Units))
		if err != nil {
			return d, err
		}
		d.Units = &u
	}
	return d, nil
}

func fromPriceDoc(d priceDoc) model.Price {
	p := model.NewPrice(d.Label)
	if d.Tag != "" {
		p.Tag = model.PriceTag(d.Tag)
	}
	if d.Units != nil && *d.Units >= 0 {
		u := model.PriceUnits(*d.Units)
		p.Units = &u
	}
	return p
}

func toListingDoc(l *model.Listing) (*listingDoc, error) {
	ledgerID, err := toInt64(l.LedgerID)
	if err != nil {
		return nil, fmt.Errorf("ledgerId: %w", err)
	}
	base, err := toInt64(uint64(l.BasePrice))
	if err != nil {
		return nil, fmt.Errorf("basePrice: %w", err)
	}
	accepting := l.AcceptingNewUsers
	doc := &listingDoc{
		ID:                l.ID,
		LedgerID:          ledgerID,
		Name:              l.Name,
		Description:       l.Description,
		FullDescription:   l.FullDescription,
		Provider:          l.Provider,
		ProviderAddress:   l.ProviderAddress,
		Category:          l.Category,
		Tags:              l.Tags,
		Verified:          l.Verified,
		AcceptingNewUsers: &accepting,
		BasePrice:         base,
		Currency:          l.Currency,
		TokensAccepted:    l.TokensAccepted,
		Endpoint:          l.Endpoint,
		DocsURL:           l.DocsURL,
		MetadataURI:       l.MetadataURI,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
	if f := l.Free; f != nil {
		req, err := toInt64(f.IncludedRequests)
		if err != nil {
			return nil, fmt.Errorf("freeTier.requests: %w", err)
		}
		doc.FreeTier = &freeTierDoc{Name: f.Name, Requests: req, Features: f.Features, Forever: f.Forever}
	}
	for i, p := range l.Packages {
		req, err := toInt64(p.Requests)
		if err != nil {
			return nil, fmt.Errorf("requestPackages[%d].requests: %w", i, err)
		}
		price, err := toPriceDoc(p.Price)
		if err != nil {
			return nil, fmt.Errorf("requestPackages[%d].price: %w", i, err)
		}
		doc.Packages = append(doc.Packages, packageDoc{Name: p.Name, Requests: req, Price: price, PerRequest: p.PerRequest})
	}
	for i, t := range l.Tiers {
		price, err := toPriceDoc(t.Price)
		if err != nil {
			return nil, fmt.Errorf("pricingTiers[%d].price: %w", i, err)
		}
		doc.Tiers = append(doc.Tiers, tierDoc{
			Name: t.Name, Price: price, Requests: t.Requests,
			Features: t.Features, Type: t.Type, Period: t.Period,
		})
	}
	if e := l.Enterprise; e != nil {
		doc.Enterprise = &enterpriseDoc{Name: e.Name, Features: e.Features, ContactLabel: e.ContactLabel}
	}
	return doc, nil
}

func fromListingDoc(d *listingDoc) (*model.Listing, error) {
	l := &model.Listing{
		ID:                d.ID,
		LedgerID:          uint64(max(d.LedgerID, 0)),
		Name:              d.Name,
		Description:       d.Description,
		FullDescription:   d.FullDescription,
		Provider:          d.Provider,
		ProviderAddress:   d.ProviderAddress,
		Category:          d.Category,
		Tags:              d.Tags,
		Verified:          d.Verified,
		AcceptingNewUsers: d.AcceptingNewUsers == nil || *d.AcceptingNewUsers,
		BasePrice:         model.PriceUnits(max(d.BasePrice, 0)),
		Currency:          d.Currency,
		TokensAccepted:    d.TokensAccepted,
		Endpoint:          d.Endpoint,
		DocsURL:           d.DocsURL,
		MetadataURI:       d.MetadataURI,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if f := d.FreeTier; f != nil {
		l.Free = &model.FreeTier{Name: f.Name, IncludedRequests: uint64(max(f.Requests, 0)), Features: f.Features, Forever: f.Forever}
	}
	for _, p := range d.Packages {
		l.Packages = append(l.Packages, model.RequestPackage{
			Name: p.Name, Requests: uint64(max(p.Requests, 0)), Price: fromPriceDoc(p.Price), PerRequest: p.PerRequest,
		})
	}
	for _, t := range d.Tiers {
		l.Tiers = append(l.Tiers, model.PricingTier{
			Name: t.Name, Price: fromPriceDoc(t.Price), Requests: t.Requests,
			Features: t.Features, Type: t.Type, Period: t.Period,
		})
	}
	if e := d.Enterprise; e != nil {
		l.Enterprise = &model.EnterpriseTier{Name: e.Name, Features: e.Features, ContactLabel: e.ContactLabel}
	}
	if d.BasePrice == 0 && d.LegacyPriceMs != nil {
		u, err := model.DenominationOf(l).FromMicro(decimal.NewFromFloat(*d.LegacyPriceMs))
		if err != nil {
			return nil, fmt.Errorf("catalog/mongo: listing %s price_ms: %w", d.ID, err)
		}
		l.BasePrice = u
	}
	return l, nil
}
