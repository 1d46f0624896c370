package binding

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"

	"go.uber.org/zap"
)

// DeployFunc creates a fresh ledger binding when the cache has none.
type DeployFunc func(ctx context.Context) (*ledger.BindingRef, error)

// Cache memoizes ledger bindings per ledger kind. Entries expire after
// the configured TTL, after which the next lookup deploys a fresh
// binding. Native identifiers minted under an expired binding are no
// longer valid.
type Cache struct {
	entries *lru.LRU[ledger.Kind, *ledger.BindingRef]

	mu    sync.Mutex
	locks map[ledger.Kind]*sync.Mutex
}

func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		entries: lru.NewLRU[ledger.Kind, *ledger.BindingRef](size, nil, ttl),
		locks:   make(map[ledger.Kind]*sync.Mutex),
	}
}

// GetOrCreate returns the cached binding for kind, deploying a new one
// through deploy when none is cached. Concurrent callers for the same
// kind share a single deployment.
func (cache *Cache) GetOrCreate(ctx context.Context, kind ledger.Kind, deploy DeployFunc) (*ledger.BindingRef, error) {
	lock := cache.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()

	if ref, ok := cache.entries.Get(kind); ok {
		return ref, nil
	}

	ref, err := deploy(ctx)
	if err != nil {
		return nil, err
	}

	cache.entries.Add(kind, ref)
	log.Info("ledger binding created",
		zap.String("kind", string(kind)),
		zap.String("address", ref.Address))

	return ref, nil
}

// Get returns the cached binding for kind without deploying.
func (cache *Cache) Get(kind ledger.Kind) (*ledger.BindingRef, bool) {
	lock := cache.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()

	return cache.entries.Get(kind)
}

// Invalidate drops the cached binding for kind. The next GetOrCreate
// deploys a fresh binding.
func (cache *Cache) Invalidate(kind ledger.Kind) {
	lock := cache.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()

	cache.entries.Remove(kind)
	log.Info("ledger binding invalidated", zap.String("kind", string(kind)))
}

func (cache *Cache) kindLock(kind ledger.Kind) *sync.Mutex {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	lock, ok := cache.locks[kind]
	if !ok {
		lock = &sync.Mutex{}
		cache.locks[kind] = lock
	}

	return lock
}
