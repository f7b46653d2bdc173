package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shamank/infraproxy-sdk-go/pkg/config"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

func sampleListing(id string) *model.Listing {
	units := model.PriceUnits(4_000_000_000)
	return &model.Listing{
		ID:                id,
		LedgerID:          7,
		Name:              "SuperNode RPC",
		Description:       "Dedicated Sui RPC",
		Provider:          "SuperNode",
		Category:          "RPC",
		Tags:              []string{"rpc", "mainnet"},
		AcceptingNewUsers: true,
		Currency:          "SUI",
		PricingModel: model.PricingModel{
			Free: &model.FreeTier{Name: "Starter", IncludedRequests: 100, Forever: true},
			Packages: []model.RequestPackage{
				{Name: "1000 Requests", Requests: 1000, Price: model.UnitsPrice(units, "4 SUI")},
			},
			Tiers:      []model.PricingTier{{Name: "Enterprise", Price: model.NewPrice("Custom")}},
			Enterprise: &model.EnterpriseTier{Name: "Enterprise", ContactLabel: "Talk to us"},
		},
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleListing("supernode-rpc-1")
			require.NoError(t, s.Put(ctx, want))

			got, err := s.Get(ctx, want.ID)
			require.NoError(t, err)
			assert.Equal(t, want.Name, got.Name)
			assert.Equal(t, want.LedgerID, got.LedgerID)
			assert.True(t, got.AcceptingNewUsers)
			require.Len(t, got.Packages, 1)
			require.NotNil(t, got.Packages[0].Price.Units)
			assert.Equal(t, model.PriceUnits(4_000_000_000), *got.Packages[0].Price.Units)
			assert.True(t, got.Tiers[0].Price.IsCustom())
			assert.Equal(t, "Talk to us", got.Enterprise.ContactLabel)
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_PutReplacesAndKeepsOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, sampleListing("a")))
			require.NoError(t, s.Put(ctx, sampleListing("b")))

			retired := sampleListing("a")
			retired.AcceptingNewUsers = false
			require.NoError(t, s.Put(ctx, retired))

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "a", all[0].ID)
			assert.Equal(t, "b", all[1].ID)
			assert.False(t, all[0].AcceptingNewUsers)
		})
	}
}

func TestStore_RejectsMissingID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Put(context.Background(), &model.Listing{Name: "x"}))
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(sampleListing("a"))
	got, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	got.Name = "mutated"
	got.Packages[0].Name = "mutated"

	again, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "SuperNode RPC", again.Name)
	assert.Equal(t, "1000 Requests", again.Packages[0].Name)
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open(context.Background(), config.Catalog{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(context.Background(), config.Catalog{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close(context.Background()))

	_, err = Open(context.Background(), config.Catalog{Driver: "redis"})
	assert.Error(t, err)
}
