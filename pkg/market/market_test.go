package market

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/shamank/infraproxy-sdk-go/pkg/account"
	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
	"github.com/shamank/infraproxy-sdk-go/pkg/config"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/purchase"
	"github.com/shamank/infraproxy-sdk-go/pkg/storage"
)

const buyer = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

type mockSigner struct {
	// entered is signalled on every SignTransaction; release gates its return.
	entered chan struct{}
	release chan struct{}
}

func (m *mockSigner) Address() string { return buyer }

func (m *mockSigner) SignTransaction(ctx context.Context, tx *blockchain.Transaction) (*blockchain.SignedTransaction, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &blockchain.SignedTransaction{Tx: tx, Raw: []byte{0x01}, Hash: "0xabc"}, nil
}

func (m *mockSigner) SignMessage(context.Context, []byte) ([]byte, error) {
	return []byte("sig"), nil
}

type mockGateway struct {
	submits atomic.Int32
	queries atomic.Int32
	amount  uint64
}

func (g *mockGateway) Submit(_ context.Context, stx *blockchain.SignedTransaction) (*blockchain.Receipt, error) {
	g.submits.Add(1)
	return &blockchain.Receipt{TxHash: stx.Hash, Block: 7}, nil
}

func (g *mockGateway) Query(context.Context, blockchain.ReadCall) ([][]byte, error) {
	g.queries.Add(1)
	if g.amount == 0 {
		return nil, blockchain.ErrNotFound
	}
	return [][]byte{blockchain.EncodeU64(g.amount)}, nil
}

type memDocs struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (m *memDocs) Fetch(_ context.Context, cid string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.docs[cid]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (m *memDocs) Upload(_ context.Context, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cid := "bafkdoc" + strings.Repeat("x", len(m.docs)+1)
	m.docs[cid] = data
	return cid, nil
}

func listings() []*model.Listing {
	return []*model.Listing{
		{
			ID: "supernode-rpc", LedgerID: 7, Name: "SuperNode RPC", Category: "RPC Nodes",
			AcceptingNewUsers: true,
			PricingModel: model.PricingModel{
				Packages:   []model.RequestPackage{{Name: "1000 Requests", Requests: 1000, Price: model.NewPrice("4 SUI")}},
				Enterprise: &model.EnterpriseTier{Name: "Enterprise", ContactLabel: "Talk to us"},
			},
		},
		{
			ID: "free-oracle", LedgerID: 8, Name: "Free Oracle", Category: "Oracles",
			AcceptingNewUsers: true,
			PricingModel:      model.PricingModel{Free: &model.FreeTier{Name: "Starter", IncludedRequests: 100}},
		},
		{
			ID: "premium-indexer", LedgerID: 9, Name: "Premium Indexer", Category: "Indexers",
			AcceptingNewUsers: true,
			PricingModel: model.PricingModel{
				Packages: []model.RequestPackage{{Name: "1000 Requests", Requests: 1000, Price: model.NewPrice("20 SUI")}},
			},
		},
	}
}

type fixture struct {
	core    *Core
	gateway *mockGateway
	signer  *mockSigner
	docs    *memDocs
}

func newFixture(t *testing.T, withSigner bool) *fixture {
	t.Helper()
	return newCurrencyFixture(t, withSigner, "")
}

func newCurrencyFixture(t *testing.T, withSigner bool, currency string) *fixture {
	t.Helper()
	cfg := &config.Config{RPCAddr: "http://unused", MarketAddr: "0x5FbDB2315678afecb367f032d93F642f64180aa3", Currency: currency}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	f := &fixture{gateway: &mockGateway{amount: 1000}, docs: &memDocs{docs: map[string][]byte{}}}
	d := Deps{
		Store:   catalog.NewMemoryStore(listings()...),
		Gateway: f.gateway,
		Storage: storage.NewClientWith(f.docs, f.docs, nil),
	}
	if withSigner {
		f.signer = &mockSigner{}
		d.Signer = f.signer
	}
	now := time.UnixMilli(1_700_000_000_000)
	core, err := Assemble(cfg, d, WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(core.Close)
	f.core = core
	return f
}

func TestAssemble_RequiresStoreAndGateway(t *testing.T) {
	cfg := &config.Config{RPCAddr: "x"}
	if _, err := Assemble(cfg, Deps{Gateway: &mockGateway{}}); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := Assemble(cfg, Deps{Store: catalog.NewMemoryStore()}); err == nil {
		t.Fatalf("expected error without gateway")
	}
}

func TestCore_ListingsAndQuote(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	all, err := f.core.Listings(ctx, catalog.Criteria{})
	if err != nil || len(all) != 3 {
		t.Fatalf("Listings: %d %v", len(all), err)
	}
	budget, err := f.core.Listings(ctx, catalog.Criteria{PriceBand: catalog.BandBudget})
	if err != nil {
		t.Fatalf("Listings budget: %v", err)
	}
	if len(budget) != 2 || budget[0].ID != "supernode-rpc" || budget[1].ID != "free-oracle" {
		t.Fatalf("unexpected budget listings: %+v", budget)
	}

	q, err := f.core.Quote(ctx, "supernode-rpc", model.ModePerRequest, 0)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Units != 4_000_000_000 || q.Display != "4.00 SUI" {
		t.Fatalf("unexpected quote: %+v", q)
	}
	q, err = f.core.Quote(ctx, "supernode-rpc", model.ModeEnterprise, 0)
	if err != nil || !q.IsContact() || q.Contact != "Talk to us" {
		t.Fatalf("enterprise quote: %+v %v", q, err)
	}
	if _, err := f.core.Listing(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCore_ReadOnly(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	if _, err := f.core.Purchase(ctx, "supernode-rpc", model.ModePerRequest, 0); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Purchase: expected ErrReadOnly, got %v", err)
	}
	if _, _, err := f.core.Login(ctx); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Login: expected ErrReadOnly, got %v", err)
	}
	if _, err := f.core.Entitlement(ctx, "", 7); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Entitlement: expected ErrReadOnly, got %v", err)
	}
	e, err := f.core.Entitlement(ctx, buyer, 7)
	if err != nil || e == nil || e.Amount != 1000 {
		t.Fatalf("Entitlement for explicit user: %+v %v", e, err)
	}
	if f.core.Address() != "" {
		t.Fatalf("read-only core has address %q", f.core.Address())
	}
}

func TestCore_PurchaseConfirmedWatchesEntitlement(t *testing.T) {
	f := newFixture(t, true)
	out, err := f.core.Purchase(context.Background(), "supernode-rpc", model.ModePerRequest, 0)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if out.Kind != purchase.OutcomeConfirmed || out.Price != 4_000_000_000 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Entitlement == nil || out.Entitlement.Amount != 1000 {
		t.Fatalf("entitlement not refreshed: %+v", out.Entitlement)
	}
	if f.gateway.submits.Load() != 1 {
		t.Fatalf("expected 1 submit, got %d", f.gateway.submits.Load())
	}
	if f.core.poller.Watched() != 1 {
		t.Fatalf("expected purchased service to be watched")
	}
	if got := f.core.FormatEntitlement(out.Entitlement); got != "1000 MIST" {
		t.Fatalf("FormatEntitlement = %q", got)
	}
}

func TestCore_FreePurchaseDoesNotWatch(t *testing.T) {
	f := newFixture(t, true)
	out, err := f.core.Purchase(context.Background(), "free-oracle", model.ModeFree, 0)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if out.Kind != purchase.OutcomeFreeActivated || f.gateway.submits.Load() != 0 {
		t.Fatalf("unexpected outcome %+v submits=%d", out, f.gateway.submits.Load())
	}
	if f.core.poller.Watched() != 0 {
		t.Fatalf("free activation should not be watched")
	}
}

func TestCore_PurchaseInFlight(t *testing.T) {
	f := newFixture(t, true)
	f.signer.entered = make(chan struct{}, 1)
	f.signer.release = make(chan struct{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := f.core.Purchase(ctx, "supernode-rpc", model.ModePerRequest, 0)
		done <- err
	}()
	<-f.signer.entered

	if _, err := f.core.Purchase(ctx, "supernode-rpc", model.ModePerRequest, 0); !errors.Is(err, ErrPurchaseInFlight) {
		t.Fatalf("expected ErrPurchaseInFlight, got %v", err)
	}
	// other listings are not blocked
	if out, err := f.core.Purchase(ctx, "free-oracle", model.ModeFree, 0); err != nil || out.Kind != purchase.OutcomeFreeActivated {
		t.Fatalf("free purchase during flight: %+v %v", out, err)
	}

	close(f.signer.release)
	if err := <-done; err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	f.signer.entered = nil
	if _, err := f.core.Purchase(ctx, "supernode-rpc", model.ModePerRequest, 0); err != nil {
		t.Fatalf("purchase after release: %v", err)
	}
}

func TestCore_Login(t *testing.T) {
	f := newFixture(t, true)
	u, proof, err := f.core.Login(context.Background())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Address != buyer || u.Nickname != "User_0x7099" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if proof.Message != "Login to InfraProxy at 1700000000000" {
		t.Fatalf("unexpected message: %q", proof.Message)
	}
	again, _, err := f.core.Login(context.Background())
	if err != nil || !again.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("second login: %+v %v", again, err)
	}
}

func TestCore_RegisterPublishesAndImports(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	l, err := f.core.Register(ctx, catalog.ProviderInput{
		Name:        "Edge Cache",
		Description: "CDN edge cache",
		Provider:    "Acme",
		Packages:    []catalog.PackageInput{{Requests: 1000, Price: "2"}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(l.MetadataURI, storage.IpfsPrefix) {
		t.Fatalf("listing not published: %q", l.MetadataURI)
	}
	stored, err := f.core.Listing(ctx, l.ID)
	if err != nil || stored.MetadataURI != l.MetadataURI {
		t.Fatalf("stored listing: %+v %v", stored, err)
	}

	got, err := f.core.Import(ctx, l.MetadataURI)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got.ID != l.ID || got.Name != "Edge Cache" {
		t.Fatalf("unexpected import: %+v", got)
	}
}

func TestCore_RegisterRejectsForeignCurrency(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.core.Register(ctx, catalog.ProviderInput{
		Name: "USDC Cache", Description: "priced in USDC", Provider: "Acme", Currency: "USDC", LedgerID: 11,
		Packages: []catalog.PackageInput{{Requests: 1000, Price: "4"}},
	})
	if !errors.Is(err, catalog.ErrCurrencyMismatch) {
		t.Fatalf("expected catalog.ErrCurrencyMismatch, got %v", err)
	}
	all, _ := f.core.Listings(ctx, catalog.Criteria{})
	if len(all) != len(listings()) {
		t.Fatalf("mismatched listing was stored: %d listings", len(all))
	}

	foreign := listings()
	foreign[2].Currency = "USDC"
	if _, err := f.core.Seed(ctx, foreign); !errors.Is(err, catalog.ErrCurrencyMismatch) {
		t.Fatalf("Seed: expected catalog.ErrCurrencyMismatch, got %v", err)
	}
}

func TestCore_NonSUICatalog(t *testing.T) {
	f := newCurrencyFixture(t, true, "USDC")
	ctx := context.Background()

	l, err := f.core.Register(ctx, catalog.ProviderInput{
		Name: "USDC Cache", Description: "priced in USDC", Provider: "Acme", Currency: "USDC", LedgerID: 11,
		Packages: []catalog.PackageInput{{Requests: 1000, Price: "4"}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if l.LedgerID != 11 {
		t.Fatalf("ledger id not carried from intake: %d", l.LedgerID)
	}

	q, err := f.core.Quote(ctx, l.ID, model.ModePerRequest, 0)
	if err != nil || q.Units != 4_000_000 || q.Display != "4.00 USDC" {
		t.Fatalf("Quote = %+v, %v", q, err)
	}
	if got := catalog.Filter([]*model.Listing{l}, catalog.Criteria{PriceBand: catalog.BandBudget}); len(got) != 1 {
		t.Fatal("4 USDC listing should be in the budget band")
	}

	out, err := f.core.Purchase(ctx, l.ID, model.ModePerRequest, 0)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if out.Price != 4_000_000 || out.Display != "4.00 USDC" || out.ServiceID != 11 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if got := f.core.FormatEntitlement(out.Entitlement); !strings.Contains(got, "USDC") {
		t.Fatalf("entitlement not rendered in catalog currency: %q", got)
	}
}

func TestCore_RegisteredWithoutLedgerIDCannotBePaid(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	l, err := f.core.Register(ctx, catalog.ProviderInput{
		Name: "Unlisted", Description: "not on ledger yet", Provider: "Acme",
		Packages: []catalog.PackageInput{{Requests: 1000, Price: "2"}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.core.Purchase(ctx, l.ID, model.ModePerRequest, 0); !errors.Is(err, purchase.ErrNotOnLedger) {
		t.Fatalf("expected purchase.ErrNotOnLedger, got %v", err)
	}
	if f.gateway.submits.Load() != 0 {
		t.Fatal("listing without ledger id was submitted")
	}
}

func TestCore_RegisterWithoutIPFS(t *testing.T) {
	f := newFixture(t, false)
	f.core.storage = storage.NewClientWith(nil, nil, nil)
	l, err := f.core.Register(context.Background(), catalog.ProviderInput{
		Name: "Plain", Description: "no docs", Provider: "Acme",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if l.MetadataURI != "" {
		t.Fatalf("unexpected metadata uri %q", l.MetadataURI)
	}
	if _, err := f.core.Listing(context.Background(), l.ID); err != nil {
		t.Fatalf("listing not stored: %v", err)
	}
}

func TestCore_Seed(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	// first pass fills canonical units on the fixture listings
	if _, err := f.core.Seed(ctx, listings()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	ls := listings()
	ls[0].Name = "SuperNode RPC v2"
	r, err := f.core.Seed(ctx, ls)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if r.Updated != 1 || r.Unchanged != 2 || r.Inserted != 0 {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestCore_AuthContext(t *testing.T) {
	if _, err := newFixture(t, false).core.AuthContext(context.Background()); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	ctx, err := newFixture(t, true).core.AuthContext(context.Background())
	if err != nil {
		t.Fatalf("AuthContext: %v", err)
	}
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok || len(md.Get(account.UserAddressHeader)) != 1 || md.Get(account.UserAddressHeader)[0] != buyer {
		t.Fatalf("unexpected metadata: %v", md)
	}
}
