package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/handball/internal/adapters/kv"
	"github.com/okian/handball/internal/domain/model"
	"github.com/okian/handball/pkg/logger"
	"github.com/okian/handball/pkg/metrics"
)

// Catalog stores named files, each a list of groups. The file list lives
// under one key and every file payload under prefix+id. Payloads hold raw and
// manual fields only; derived fields are recomputed on load.
//
// Reads are soft: a missing or unreadable key yields an empty result, never an
// error. Writes report backend failures wrapped with ErrWrite.
type Catalog struct {
	store         kv.Store
	catalogKey    string
	payloadPrefix string
	now           func() time.Time
	newID         func() string
	log           logger.Logger

	// mu serialises read-modify-write cycles on the catalog key.
	mu sync.Mutex
}

// NewCatalog returns a catalog over store.
func NewCatalog(store kv.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:         store,
		catalogKey:    DefaultCatalogKey,
		payloadPrefix: DefaultPayloadPrefix,
		now:           time.Now,
		newID:         newFileID,
		log:           logger.OrNop("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newFileID returns a time-ordered UUID (v7) with a random suffix.
func newFileID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (c *Catalog) payloadKey(id string) string { return c.payloadPrefix + id }

func (c *Catalog) stamp() time.Time { return c.now().UTC().Truncate(time.Millisecond) }

// ListFiles returns the catalog in stored order. A missing or corrupt catalog
// yields an empty list.
func (c *Catalog) ListFiles(ctx context.Context) []FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	files := c.readIndex(ctx)
	metrics.UpdateCatalogSize(len(files))
	return files
}

// FileInfo returns the catalog entry for id.
func (c *Catalog) FileInfo(ctx context.Context, id string) (FileInfo, bool) {
	for _, f := range c.ListFiles(ctx) {
		if f.ID == id {
			return f, true
		}
	}
	return FileInfo{}, false
}

// CreateFile registers a new file with an empty payload and returns its id.
func (c *Catalog) CreateFile(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.newID()
	files := c.readIndex(ctx)
	files = append(files, FileInfo{ID: id, Name: name, LastModified: c.stamp()})
	if err := c.writeIndex(ctx, files); err != nil {
		return "", err
	}
	if err := c.writePayload(ctx, id, nil); err != nil {
		return "", err
	}
	metrics.RecordFileCreated()
	c.log.Info(ctx, "file created", logger.String("id", id), logger.String("name", name))
	return id, nil
}

// SaveFile writes the payload of id and upserts its catalog entry with name
// and a fresh lastModified stamp.
func (c *Catalog) SaveFile(ctx context.Context, id, name string, groups []model.Group) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writePayload(ctx, id, groups); err != nil {
		return err
	}
	info := FileInfo{ID: id, Name: name, LastModified: c.stamp()}
	files := c.readIndex(ctx)
	replaced := false
	for i := range files {
		if files[i].ID == id {
			files[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		files = append(files, info)
	}
	if err := c.writeIndex(ctx, files); err != nil {
		return err
	}
	metrics.RecordFileSaved()
	c.log.Debug(ctx, "file saved", logger.String("id", id), logger.Int("groups", len(groups)))
	return nil
}

// LoadFile reads the payload of id and recomputes every derived field. ok is
// false when the payload is missing or cannot be decoded.
func (c *Catalog) LoadFile(ctx context.Context, id string) ([]model.Group, bool) {
	raw, ok, err := c.store.Get(ctx, c.payloadKey(id))
	if err != nil {
		c.log.Warn(ctx, "payload read failed", logger.String("id", id), logger.Error(err))
		metrics.RecordFileLoad(metrics.ResultMiss)
		return nil, false
	}
	if !ok {
		metrics.RecordFileLoad(metrics.ResultMiss)
		return nil, false
	}
	var stored []storedGroup
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.log.Warn(ctx, "payload corrupt", logger.String("id", id), logger.Error(err))
		metrics.RecordFileLoad(metrics.ResultMiss)
		return nil, false
	}
	metrics.RecordFileLoad(metrics.ResultHit)
	return decodeGroups(stored), true
}

// DeleteFile removes the payload and catalog entry of id. Deleting an unknown
// id is a no-op.
func (c *Catalog) DeleteFile(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Remove(ctx, c.payloadKey(id)); err != nil {
		return fmt.Errorf("%w: remove payload %s: %w", ErrWrite, id, err)
	}
	files := c.readIndex(ctx)
	kept := files[:0]
	for _, f := range files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if err := c.writeIndex(ctx, kept); err != nil {
		return err
	}
	metrics.RecordFileDeleted()
	c.log.Info(ctx, "file deleted", logger.String("id", id))
	return nil
}

// RenameFile changes the catalog name of id. Unknown ids are ignored.
func (c *Catalog) RenameFile(ctx context.Context, id, newName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	files := c.readIndex(ctx)
	for i := range files {
		if files[i].ID == id {
			files[i].Name = newName
			return c.writeIndex(ctx, files)
		}
	}
	return nil
}

func (c *Catalog) readIndex(ctx context.Context) []FileInfo {
	raw, ok, err := c.store.Get(ctx, c.catalogKey)
	if err != nil {
		c.log.Warn(ctx, "catalog read failed", logger.Error(err))
		return []FileInfo{}
	}
	if !ok || len(raw) == 0 {
		return []FileInfo{}
	}
	var files []FileInfo
	if err := json.Unmarshal(raw, &files); err != nil {
		c.log.Warn(ctx, "catalog corrupt", logger.Error(err))
		return []FileInfo{}
	}
	if files == nil {
		files = []FileInfo{}
	}
	return files
}

func (c *Catalog) writeIndex(ctx context.Context, files []FileInfo) error {
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := c.store.Set(ctx, c.catalogKey, data); err != nil {
		return fmt.Errorf("%w: catalog: %w", ErrWrite, err)
	}
	return nil
}

func (c *Catalog) writePayload(ctx context.Context, id string, groups []model.Group) error {
	data, err := json.Marshal(encodeGroups(groups))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := c.store.Set(ctx, c.payloadKey(id), data); err != nil {
		return fmt.Errorf("%w: payload %s: %w", ErrWrite, id, err)
	}
	return nil
}
