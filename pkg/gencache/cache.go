// Package gencache read-through кэш с коротким TTL и монотонным счетчиком поколений.
// Запись считается актуальной, только пока поколение, под которым она была загружена,
// совпадает с текущим. Инвалидация выполняется исключительно через Generation.Bump.
package gencache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// maxEntries порог, после которого из карты вычищаются устаревшие записи
	maxEntries = 1024

	// loadTimeout предел общей загрузки, не зависящий от отмены запросов
	loadTimeout = 10 * time.Second
)

// Generation монотонный счетчик изменений
type Generation struct {
	value atomic.Uint64
}

// Bump увеличивает поколение и возвращает новое значение
func (g *Generation) Bump() uint64 {
	return g.value.Add(1)
}

// Current текущее поколение
func (g *Generation) Current() uint64 {
	return g.value.Load()
}

type entry[V any] struct {
	value      V
	generation uint64
	expiresAt  time.Time
}

// Cache кэш значений типа V по строковому ключу
type Cache[V any] struct {
	ttl time.Duration
	gen *Generation
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group
}

// New создает кэш; ttl <= 0 отключает кэширование (каждый Get вызывает load)
func New[V any](ttl time.Duration, gen *Generation) *Cache[V] {
	if gen == nil {
		gen = &Generation{}
	}
	return &Cache[V]{
		ttl:     ttl,
		gen:     gen,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Generation счетчик, которым инвалидируется кэш
func (c *Cache[V]) Generation() *Generation {
	return c.gen
}

// Get возвращает значение из кэша или загружает его через load
// hit = true, если значение взято из кэша
// Параллельные промахи по одному ключу в одном поколении выполняют load один раз
func (c *Cache[V]) Get(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, bool, error) {
	if c.ttl <= 0 {
		v, err := load(ctx)
		return v, false, err
	}

	// Поколение фиксируется до загрузки: если во время загрузки пришла запись,
	// результат сохранится под старым поколением и не будет выдан повторно
	generation := c.gen.Current()

	if v, ok := c.lookup(key, generation); ok {
		return v, true, nil
	}

	// Загрузку делят все ожидающие, поэтому отмена запроса, который ее начал,
	// не должна ее обрывать; каждый вызов ждет результат в пределах своего ctx
	flightKey := strconv.FormatUint(generation, 10) + "|" + key
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.store(key, v, generation)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}

// Len количество записей (включая устаревшие)
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) lookup(key string, generation uint64) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.generation != generation || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, v V, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxEntries {
		c.purgeLocked()
	}

	c.entries[key] = entry[V]{
		value:      v,
		generation: generation,
		expiresAt:  c.now().Add(c.ttl),
	}
}

func (c *Cache[V]) purgeLocked() {
	current := c.gen.Current()
	now := c.now()
	for k, e := range c.entries {
		if e.generation != current || !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
