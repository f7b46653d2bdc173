package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

var (
	// ErrNotFound is returned for an unknown address.
	ErrNotFound = errors.New("account: user not found")
	// ErrAddressRequired is returned when no address is given.
	ErrAddressRequired = errors.New("account: address is required")
	// ErrExists is returned by Store.Insert for an address already present.
	ErrExists = errors.New("account: user exists")
)

// Store persists users.
type Store interface {
	Get(ctx context.Context, address string) (*model.User, error)
	Insert(ctx context.Context, u *model.User) error
	Update(ctx context.Context, address string, nickname, name string) error
	Close(ctx context.Context) error
}

// DefaultNickname is the nickname given to users who did not choose one.
func DefaultNickname(address string) string {
	prefix := address
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return "User_" + prefix
}

// Directory creates and looks up users.
type Directory struct {
	store Store
	now   func() time.Time
}

// NewDirectory returns a Directory over store.
func NewDirectory(store Store) *Directory {
	return &Directory{store: store, now: time.Now}
}

// Ensure returns the user for address, creating it when absent. created
// reports whether a new user was inserted.
func (d *Directory) Ensure(ctx context.Context, address, nickname, name string) (u *model.User, created bool, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false, ErrAddressRequired
	}
	u, err = d.store.Get(ctx, address)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	u = &model.User{Address: address, Nickname: nickname, Name: name, CreatedAt: d.now().UTC()}
	if u.Nickname == "" {
		u.Nickname = DefaultNickname(address)
	}
	if err := d.store.Insert(ctx, u); err != nil {
		// lost a race with another Ensure
		if errors.Is(err, ErrExists) {
			existing, gerr := d.store.Get(ctx, address)
			return existing, false, gerr
		}
		return nil, false, err
	}
	zap.L().Info("Created new user", zap.String("address", address))
	return u, true, nil
}

// Get returns the user for address.
func (d *Directory) Get(ctx context.Context, address string) (*model.User, error) {
	return d.store.Get(ctx, address)
}

// Update changes the non-empty fields among nickname and name.
func (d *Directory) Update(ctx context.Context, address, nickname, name string) (*model.User, error) {
	if address == "" {
		return nil, ErrAddressRequired
	}
	if err := d.store.Update(ctx, address, nickname, name); err != nil {
		return nil, err
	}
	return d.store.Get(ctx, address)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]model.User)}
}

func (s *MemoryStore) Get(_ context.Context, address string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return &u, nil
}

func (s *MemoryStore) Insert(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Address]; ok {
		return fmt.Errorf("%w: %s", ErrExists, u.Address)
	}
	s.users[u.Address] = *u
	return nil
}

func (s *MemoryStore) Update(_ context.Context, address, nickname, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if nickname != "" {
		u.Nickname = nickname
	}
	if name != "" {
		u.Name = name
	}
	s.users[address] = u
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
