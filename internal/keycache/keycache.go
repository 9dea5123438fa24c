// Package keycache persists resolved API keys on the deployment machine so
// repeated runs against the same stack never touch the network.
//
// The on-disk layout is a single JSON file mapping account id to stack name
// to key value:
//
//	{
//	  "123456789012": {
//	    "orders-api": "FcdXKn0Wb1...",
//	    "billing-api": "qTkQmzJd35..."
//	  }
//	}
//
// Entries are only ever added or updated, never removed. Access within one
// process is mutex-guarded; there is no cross-process lock, so racing
// invocations are last-writer-wins on the whole file.
package keycache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const cacheFileName = "api-keys.json"

// CorruptError indicates the cache file exists but does not contain the
// expected JSON layout. It is surfaced rather than repaired: a cache that
// silently resets would make the resolver regenerate keys that already
// exist remotely.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("key cache corrupt at %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Cache is the file-backed account/stack key map.
type Cache struct {
	path string
	mu   sync.RWMutex
	keys map[string]map[string]string
}

// DefaultPath returns the cache file location
func DefaultPath() string {
	// Check for the override environment variable first
	if dir := os.Getenv("GATEKEY_CACHE_DIR"); dir != "" {
		return filepath.Join(dir, cacheFileName)
	}

	// Try XDG_CACHE_HOME next
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "gatekey", cacheFileName)
	}

	// Fall back to ~/.gatekey/cache
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".gatekey", "cache", cacheFileName)
	}

	// Last resort: use temp directory
	return filepath.Join(os.TempDir(), "gatekey", cacheFileName)
}

// Open loads the cache at path. A missing file yields an empty cache; the
// file and its directory are only created by the first Put. A file that
// exists but will not parse yields *CorruptError.
func Open(path string) (*Cache, error) {
	c := &Cache{
		path: path,
		keys: make(map[string]map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read key cache: %w", err)
	}

	if err := json.Unmarshal(data, &c.keys); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if c.keys == nil {
		c.keys = make(map[string]map[string]string)
	}

	return c, nil
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Get looks up the key for a stack in an account. It never touches the
// filesystem; the cache content was loaded once at Open.
func (c *Cache) Get(account, stack string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stacks, ok := c.keys[account]
	if !ok {
		return "", false
	}
	value, ok := stacks[stack]
	return value, ok
}

// Put records the key for a stack and rewrites the whole cache file.
func (c *Cache) Put(account, stack, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keys[account] == nil {
		c.keys[account] = make(map[string]string)
	}
	c.keys[account][stack] = value

	return c.flush()
}

// Len returns the number of cached keys across all accounts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, stacks := range c.keys {
		n += len(stacks)
	}
	return n
}

// Accounts returns the cached account ids, sorted.
func (c *Cache) Accounts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	accounts := make([]string, 0, len(c.keys))
	for account := range c.keys {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// Stacks returns the stack names cached for an account, sorted.
func (c *Cache) Stacks(account string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stacks := make([]string, 0, len(c.keys[account]))
	for stack := range c.keys[account] {
		stacks = append(stacks, stack)
	}
	sort.Strings(stacks)
	return stacks
}

func (c *Cache) flush() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(c.keys, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key cache: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write key cache: %w", err)
	}

	return nil
}
