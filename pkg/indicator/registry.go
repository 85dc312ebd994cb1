package indicator

import (
	"fmt"
	"sync"
)

// Cache memoizes indicator outputs for a single evaluation. Entries are keyed
// by (source, kind, parameters) where source names the input column, e.g.
// "daily.close" or "weekly.close". A Cache must not outlive the snapshot it
// was built for; a nil *Cache computes without memoizing.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]float64
	pairs   map[string][2][]float64
}

// NewCache creates an empty indicator cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string][]float64),
		pairs:   make(map[string][2][]float64),
	}
}

// Key builds the cache key of an indicator
func Key(source, kind string, params ...int) string {
	key := source + "|" + kind
	for _, p := range params {
		key += fmt.Sprintf("|%d", p)
	}
	return key
}

// Get returns the cached series for key, computing it with fn on a miss
func (c *Cache) Get(key string, fn func() []float64) []float64 {
	if c == nil {
		return fn()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		return v
	}
	v := fn()
	c.entries[key] = v
	return v
}

// MovingAverage returns the memoized moving average of values
func (c *Cache) MovingAverage(source string, values []float64, length int, maType MAType) []float64 {
	return c.Get(Key(source, maType.String(), length), func() []float64 {
		return MovingAverage(values, length, maType)
	})
}

// Coppock returns the memoized reference Coppock curve of values
func (c *Cache) Coppock(source string, values []float64) []float64 {
	return c.Get(Key(source, "coppock", 14, 11, 10), func() []float64 {
		return Coppock(values)
	})
}

// StochRSI returns the memoized reference stochastic RSI of values
func (c *Cache) StochRSI(source string, values []float64) (k, d []float64) {
	if c == nil {
		return StochRSI(values)
	}

	p := DefaultStochRSIParams()
	key := Key(source, "stochrsi", p.RSI, p.Stoch, p.K, p.D)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.pairs[key]; ok {
		return v[0], v[1]
	}
	k, d = StochRSIWith(values, p)
	c.pairs[key] = [2][]float64{k, d}
	return k, d
}

// Len returns the number of cached series
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) + len(c.pairs)
}
