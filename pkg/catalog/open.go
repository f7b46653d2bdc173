package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shamank/infraproxy-sdk-go/pkg/config"
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Catalog) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.URI, cfg.Database)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	}
	return nil, fmt.Errorf("catalog: unknown driver %q", cfg.Driver)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
