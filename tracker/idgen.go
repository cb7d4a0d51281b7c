package tracker

import "sync"

// IDGenerator hands out incremental track ids starting at 1
type IDGenerator struct {
	id int64
	sync.Mutex
}

// NewIDGenerator returns a generator whose first id is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next incremental id
func (g *IDGenerator) Next() int64 {
	g.Lock()
	defer g.Unlock()
	g.id++
	return g.id
}

// Last returns the most recently issued id, or 0 if none has been issued
func (g *IDGenerator) Last() int64 {
	g.Lock()
	defer g.Unlock()
	return g.id
}
