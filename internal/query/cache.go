package query

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/san-kum/wallsim/internal/aggregate"
)

// AllProfiles and AllDays widen a Key to the whole wall or the whole run.
const (
	AllProfiles = -1
	AllDays     = 0
)

// Key identifies one aggregate query.
type Key struct {
	ConfigID string
	NumCrews int
	Day      int
	Profile  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", k.ConfigID, k.NumCrews, k.Day, k.Profile)
}

type Cache interface {
	Get(k Key) (aggregate.Totals, bool)
	Set(k Key, v aggregate.Totals)
}

// RistrettoCache is a Cache with a bounded number of entries.
type RistrettoCache struct {
	c *ristretto.Cache[string, aggregate.Totals]
}

func NewRistrettoCache(maxEntries int64) (*RistrettoCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, aggregate.Totals]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoCache{c: c}, nil
}

func (r *RistrettoCache) Get(k Key) (aggregate.Totals, bool) {
	return r.c.Get(k.String())
}

// Set stores v. Writes are applied asynchronously; call Wait to make them
// visible to Get.
func (r *RistrettoCache) Set(k Key, v aggregate.Totals) {
	r.c.Set(k.String(), v, 1)
}

func (r *RistrettoCache) Wait() { r.c.Wait() }

func (r *RistrettoCache) Close() { r.c.Close() }
