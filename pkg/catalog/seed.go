package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// SeedReport counts the outcome of a Seed run.
type SeedReport struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

func (r SeedReport) String() string {
	return fmt.Sprintf("inserted=%d updated=%d unchanged=%d", r.Inserted, r.Updated, r.Unchanged)
}

// Seed upserts listings into store. Listings whose content already matches
// the stored copy are left untouched; updates keep the stored CreatedAt.
func Seed(ctx context.Context, store Store, listings []*model.Listing, now time.Time) (SeedReport, error) {
	var r SeedReport
	for _, in := range listings {
		l := clone(in)
		if err := model.NormalizePricing(l); err != nil {
			return r, fmt.Errorf("seed %s: %w", l.ID, err)
		}

		existing, err := store.Get(ctx, l.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			if l.CreatedAt.IsZero() {
				l.CreatedAt = now
			}
			l.UpdatedAt = now
			if err := store.Put(ctx, l); err != nil {
				return r, err
			}
			r.Inserted++
			zap.L().Debug("Seeded listing", zap.String("id", l.ID))
			continue
		case err != nil:
			return r, err
		}

		if sameContent(existing, l) {
			r.Unchanged++
			continue
		}
		l.CreatedAt = existing.CreatedAt
		l.UpdatedAt = now
		if err := store.Put(ctx, l); err != nil {
			return r, err
		}
		r.Updated++
		zap.L().Debug("Updated listing", zap.String("id", l.ID))
	}
	return r, nil
}

func sameContent(a, b *model.Listing) bool {
	x, y := *a, *b
	x.CreatedAt, x.UpdatedAt = time.Time{}, time.Time{}
	y.CreatedAt, y.UpdatedAt = time.Time{}, time.Time{}
	xa, err1 := json.Marshal(&x)
	yb, err2 := json.Marshal(&y)
	return err1 == nil && err2 == nil && string(xa) == string(yb)
}

// DecodeListings reads a seed document: a YAML or JSON list of listings, or
// an object with the list under "services".
func DecodeListings(data []byte) ([]*model.Listing, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	if m, ok := raw.(map[string]any); ok {
		raw = m["services"]
	}
	if raw == nil {
		return nil, errors.New("decode listings: no listings found")
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	var out []*model.Listing
	if err := json.Unmarshal(js, &out); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return out, nil
}
