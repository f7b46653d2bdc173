package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/account"
	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
	"github.com/shamank/infraproxy-sdk-go/pkg/config"
	"github.com/shamank/infraproxy-sdk-go/pkg/entitlement"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/pricing"
	"github.com/shamank/infraproxy-sdk-go/pkg/purchase"
	"github.com/shamank/infraproxy-sdk-go/pkg/storage"
)

var (
	// ErrPurchaseInFlight is returned while another purchase of the same
	// listing by the same user has not finished.
	ErrPurchaseInFlight = errors.New("market: purchase already in flight")
	// ErrReadOnly is returned by operations that need a signer when no
	// private key is configured.
	ErrReadOnly = errors.New("market: no signer configured")
)

var logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            logLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Deps are the backends a Core is assembled from. Store and Gateway are
// required; the rest are optional.
type Deps struct {
	Store   catalog.Store
	Gateway blockchain.LedgerGateway
	// Signer enables purchases and access proofs.
	Signer blockchain.Signer
	// Storage enables listing document publishing.
	Storage *storage.Client
	// Users backs the account directory. Default: in-memory.
	Users  account.Store
	Prober *catalog.Prober
}

// Option configures a Core.
type Option func(*Core)

// OnEntitlementUpdate receives every refresh performed by the poller.
func OnEntitlementUpdate(fn entitlement.UpdateFunc) Option {
	return func(c *Core) { c.onUpdate = fn }
}

// WithNow replaces the clock used to stamp listings and access proofs.
func WithNow(now func() time.Time) Option { return func(c *Core) { c.now = now } }

// Core is the marketplace SDK implementation.
type Core struct {
	evm          *blockchain.EVMClient
	store        catalog.Store
	gateway      blockchain.LedgerGateway
	signer       blockchain.Signer
	resolver     *pricing.Resolver
	denom        model.Denomination
	entitlements *entitlement.Client
	poller       *entitlement.Poller
	coordinator  *purchase.Coordinator
	prober       *catalog.Prober
	storage      *storage.Client
	users        *account.Directory
	onUpdate     entitlement.UpdateFunc
	now          func() time.Time

	// closers run in reverse order on Close.
	closers []func(context.Context) error

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New validates cfg, connects to the ledger and the catalog store and
// returns a ready Core. Without a private key the Core is read-only.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	cfg.Breaker = cfg.Breaker.WithDefaults()
	if cfg.Debug {
		logLevel.SetLevel(zap.DebugLevel)
	}

	evm, err := blockchain.InitEvm(ctx, cfg.RPCAddr, cfg.Network.ChainID, cfg.Timeouts.Dial)
	if err != nil {
		zap.L().Error("Init ethereum client failed", zap.Error(err))
		return nil, err
	}

	d := Deps{
		Gateway: blockchain.NewEVMGateway(evm.Client,
			blockchain.WithTimeouts(cfg.Timeouts.ChainRead, cfg.Timeouts.ChainSubmit, cfg.Timeouts.ReceiptWait)),
		Prober: catalog.NewProber(catalog.WithProbeTimeout(cfg.Timeouts.Probe)),
	}
	var closers []func(context.Context) error
	fail := func(err error) (*Core, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](context.Background())
		}
		evm.Close()
		return nil, err
	}

	if cfg.PrivateKey != "" {
		signer, err := blockchain.NewKeySigner(cfg.PrivateKey, evm.ChainID, evm.Client)
		if err != nil {
			return fail(err)
		}
		zap.L().Debug("signer address", zap.String("addr", signer.Address()))
		d.Signer = signer
	} else {
		zap.L().Warn("some methods disabled: no private key configured")
	}

	dctx, cancel := context.WithTimeout(ctx, cfg.Timeouts.Dial)
	defer cancel()
	if cfg.Catalog.Driver == config.DriverMongo {
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Catalog.URI))
		if err != nil {
			return fail(fmt.Errorf("connect mongo: %w", err))
		}
		closers = append(closers, client.Disconnect)
		listings := catalog.NewMongoStore(client, cfg.Catalog.Database)
		if err := listings.Migrate(dctx); err != nil {
			return fail(err)
		}
		users := account.NewMongoStore(client, cfg.Catalog.Database)
		if err := users.Migrate(dctx); err != nil {
			return fail(err)
		}
		d.Store, d.Users = nopCloseStore{listings}, nopCloseUsers{users}
	} else {
		store, err := catalog.Open(dctx, cfg.Catalog)
		if err != nil {
			return fail(err)
		}
		d.Store = store
	}

	st, err := storage.NewClient(cfg.IpfsURL, cfg.LighthouseURL, cfg.Timeouts.ReceiptWait)
	if err != nil {
		return fail(err)
	}
	d.Storage = st

	c, err := Assemble(cfg, d, opts...)
	if err != nil {
		return fail(err)
	}
	c.evm = evm
	c.closers = append(closers, c.closers...)
	return c, nil
}

// Assemble builds a Core over explicit backends. cfg must have passed Validate.
func Assemble(cfg *config.Config, d Deps, opts ...Option) (*Core, error) {
	if d.Store == nil || d.Gateway == nil {
		return nil, errors.New("market: store and gateway are required")
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	cfg.Breaker = cfg.Breaker.WithDefaults()

	c := &Core{
		store:    d.Store,
		gateway:  d.Gateway,
		signer:   d.Signer,
		storage:  d.Storage,
		prober:   d.Prober,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	if !cfg.Breaker.Disabled {
		c.gateway = blockchain.NewBreakerGateway("ledger", d.Gateway, cfg.Breaker)
	}
	if c.prober == nil {
		c.prober = catalog.NewProber(catalog.WithProbeTimeout(cfg.Timeouts.Probe))
	}
	users := d.Users
	if users == nil {
		users = account.NewMemoryStore()
	}
	c.users = account.NewDirectory(users)

	c.denom = model.SUI
	if cfg.Currency != "" {
		denom, ok := model.LookupDenomination(cfg.Currency)
		if !ok {
			return nil, fmt.Errorf("market: unknown currency %q", cfg.Currency)
		}
		c.denom = denom
	}
	c.resolver = pricing.NewResolver()

	c.entitlements = entitlement.NewClient(c.gateway, cfg.RegistryAddr,
		entitlement.WithTTL(cfg.Timeouts.EntitlementTTL),
		entitlement.WithNow(c.now))
	popts := []entitlement.PollerOption{entitlement.WithInterval(cfg.Timeouts.PollInterval)}
	if c.onUpdate != nil {
		popts = append(popts, entitlement.OnUpdate(c.onUpdate))
	}
	c.poller = entitlement.NewPoller(c.entitlements, popts...)

	if c.signer != nil {
		c.coordinator = purchase.NewCoordinator(c.store, c.signer, c.gateway, c.entitlements, cfg.MarketAddr,
			purchase.WithResolver(c.resolver),
			purchase.WithCurrency(c.denom),
			purchase.WithSubmitTimeout(cfg.Timeouts.ChainSubmit+cfg.Timeouts.ReceiptWait))
	}

	c.closers = []func(context.Context) error{d.Store.Close, users.Close}
	return c, nil
}

// Address returns the signer address, or "" for a read-only Core.
func (c *Core) Address() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address()
}

// GetEvm returns the EVM client for advanced operations. It is nil for a
// Core built with Assemble.
func (c *Core) GetEvm() *blockchain.EVMClient { return c.evm }

// Currency returns the denomination every listing in the catalog is priced in.
func (c *Core) Currency() model.Denomination { return c.denom }

// Entitlements exposes the entitlement client.
func (c *Core) Entitlements() *entitlement.Client { return c.entitlements }

// Close stops the poller and releases stores and the ledger connection.
func (c *Core) Close() {
	c.poller.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
	c.evm.Close()
}

// nopCloseStore leaves a shared mongo client to the Core's own closer.
type nopCloseStore struct{ catalog.Store }

func (nopCloseStore) Close(context.Context) error { return nil }

type nopCloseUsers struct{ account.Store }

func (nopCloseUsers) Close(context.Context) error { return nil }
