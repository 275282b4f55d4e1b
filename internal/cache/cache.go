package cache

import (
	"sync"

	"github.com/skycoord/fleet/pkg/core"
)

// VehicleCache caches registered vehicles so history backends can stamp
// records without a db read. Latency in these calls is critical to
// quickly process incoming telemetry.
type VehicleCache struct {
	m        sync.Mutex
	Vehicles map[string]core.Vehicle
}

func NewVehicleCache() *VehicleCache {
	return &VehicleCache{
		m:        sync.Mutex{},
		Vehicles: make(map[string]core.Vehicle),
	}
}

func (c *VehicleCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Vehicles = make(map[string]core.Vehicle)
}

func (c *VehicleCache) Get(id string) (core.Vehicle, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if v, ok := c.Vehicles[id]; ok {
		return v, true
	}
	return core.Vehicle{}, false
}

func (c *VehicleCache) Add(v core.Vehicle) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Vehicles[v.ID] = v
}

func (c *VehicleCache) Remove(id string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.Vehicles, id)
}

func (c *VehicleCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.Vehicles)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
