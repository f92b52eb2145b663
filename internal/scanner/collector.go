package scanner

import (
	"sync"

	"netsage/internal/models"
)

// collector holds one outcome slot per port. Each slot is written at most once
// and nothing is written after seal.
type collector struct {
	mu      sync.Mutex
	ports   []int
	slots   []*models.ProbeOutcome
	hostErr *models.ProbeOutcome
	sealed  bool
	missing int
}

func newCollector(ports []int) *collector {
	return &collector{
		ports: ports,
		slots: make([]*models.ProbeOutcome, len(ports)),
	}
}

// record stores the outcome for slot i and reports whether it was accepted
func (c *collector) record(i int, outcome models.ProbeOutcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed || c.slots[i] != nil {
		return false
	}
	c.slots[i] = &outcome
	if outcome.HostUnreachable && c.hostErr == nil {
		c.hostErr = &outcome
	}
	return true
}

// seal stops accepting outcomes and returns one outcome per port in port order.
// Unprobed ports inherit a host-level error if one was seen, otherwise they
// are marked filtered with the given reason.
func (c *collector) seal(reason string) []models.ProbeOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sealed = true
	c.missing = 0

	out := make([]models.ProbeOutcome, len(c.ports))
	for i, port := range c.ports {
		if c.slots[i] != nil {
			out[i] = *c.slots[i]
			continue
		}
		if c.hostErr != nil {
			out[i] = models.ProbeOutcome{
				Port:            port,
				State:           c.hostErr.State,
				Reason:          c.hostErr.Reason,
				HostUnreachable: true,
			}
			continue
		}
		c.missing++
		out[i] = models.ProbeOutcome{
			Port:   port,
			State:  models.PortStateFiltered,
			Reason: reason,
		}
	}
	return out
}

// pending returns how many ports were sealed without any outcome
func (c *collector) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missing
}
