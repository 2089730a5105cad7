package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"go.uber.org/zap"
)

// 在持久化后端前面放一层LRU内存缓存，过期判断仍以条目的原始写入时间为准
type Layered struct {
	mu     sync.Mutex
	memory *lru.Cache
	store  EntryStore
	options
}

func NewLayered(store EntryStore, maxEntries int, opts ...Option) *Layered {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Layered{
		memory:  lru.New(maxEntries),
		store:   store,
		options: options,
	}
}

func (l *Layered) Get(key string) ([]byte, bool, error) {
	l.mu.Lock()
	v, ok := l.memory.Get(key)
	l.mu.Unlock()
	if ok {
		e := v.(*Entry)
		if !l.expired(e) {
			return []byte(e.Payload), true, nil
		}
		l.mu.Lock()
		l.memory.Remove(key)
		l.mu.Unlock()
	}

	e, ok, err := l.store.GetEntry(key)
	if !ok || err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	l.memory.Add(key, e)
	l.mu.Unlock()
	l.logger.Debug("cache entry promoted to memory", zap.String("key", hint(key)))
	return []byte(e.Payload), true, nil
}

func (l *Layered) Put(key string, body []byte) error {
	if err := l.store.Put(key, body); err != nil {
		return err
	}
	l.mu.Lock()
	l.memory.Add(key, newEntry(key, body, l.now()))
	l.mu.Unlock()
	return nil
}

func (l *Layered) Delete(key string) error {
	l.mu.Lock()
	l.memory.Remove(key)
	l.mu.Unlock()
	return l.store.Delete(key)
}

func (l *Layered) Clear() error {
	l.mu.Lock()
	l.memory.Clear()
	l.mu.Unlock()
	return l.store.Clear()
}

func (l *Layered) Close() error {
	return l.store.Close()
}
