package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"gale/internal/lower"
	"gale/internal/project"
)

// PayloadSchema is bumped whenever Payload or the directive types
// change shape.
const PayloadSchema uint16 = 1

// Payload is one module's cached directive stream.
type Payload struct {
	Schema uint16
	Module lower.Module
}

// MemCache keeps lowered modules for the lifetime of the process,
// keyed by module digest. Safe for concurrent use.
type MemCache struct {
	mu      sync.RWMutex
	entries map[project.Digest]*lower.Module
}

var sharedMemCache = NewMemCache()

func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[project.Digest]*lower.Module)}
}

func (c *MemCache) Get(key project.Digest) (*lower.Module, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[key]
	return m, ok
}

func (c *MemCache) Put(key project.Digest, m *lower.Module) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = m
}

// DiskCache persists payloads under one file per digest.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache opens the cache at dir, defaulting to the user cache
// location.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "gale")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "mods", hex.EncodeToString(key[:])+".mp")
}

// Put serializes a payload, replacing atomically.
func (c *DiskCache) Put(key project.Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads a payload; a schema mismatch counts as a miss.
func (c *DiskCache) Get(key project.Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decoding cache entry: %w", err)
	}
	if out.Schema != PayloadSchema {
		return false, nil
	}
	return true, nil
}

// DropAll clears the disk cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "mods"))
}
