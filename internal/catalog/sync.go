package catalog

import (
	"context"
	"time"

	"github.com/alsace-van/catalog-import/internal/config"
	"github.com/alsace-van/catalog-import/internal/storage"
)

// SyncService refreshes the local snapshot of the hosted catalog. The
// reconciler only ever reads the cached copy, so a stale snapshot is
// acceptable between syncs.
type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

func (s *SyncService) Sync(ctx context.Context) (int, error) {
	entries, err := s.client.ListEntries(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.db.UpsertCatalogEntries(entries); err != nil {
		return 0, err
	}
	_ = s.db.SetMetadata("catalog.last_sync", time.Now().UTC().Format(time.RFC3339))
	return len(entries), nil
}
