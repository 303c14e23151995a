package vm

import "github.com/lumen-lang/lumen/values"

// InlineCache is the per-instruction record execBinary keeps for each
// binary-operator site: the operand Kinds last seen there, a Hits count of
// completed additions and a Misses count of divisions/modulos that raised
// ZeroDivisionError. Dispatch never reads it back: every execution takes
// the generic path, and attribute/method lookups have no cache.
type InlineCache struct {
	Kind1, Kind2 values.Kind
	Hits, Misses uint64

	// AttrClassPtr is not set by any opcode; LOAD_ATTR always walks the MRO.
	AttrClassPtr interface{}
}

func (c *CallFrame) cacheFor(ip int) *InlineCache {
	ic, ok := c.Caches[ip]
	if !ok {
		ic = &InlineCache{}
		c.Caches[ip] = ic
	}
	return ic
}
