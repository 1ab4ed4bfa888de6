// Package mock produces synthetic query results so the inspector can be
// exercised without vendor credentials.
package mock

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// dateLayout renders dates the way a US-English locale prints them.
const dateLayout = "1/2/2006"

const day = 24 * time.Hour

// Generator builds endpoint-shaped records from a seeded random source.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator. A nil rnd uses a randomly seeded source;
// a nil now uses time.Now.
func NewGenerator(rnd *rand.Rand, now func() time.Time) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rnd, now: now}
}

// NewSeededGenerator creates a deterministic generator.
func NewSeededGenerator(seed uint64, now func() time.Time) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed)), now)
}

// IntN returns a pseudo-random int in [0, n).
func (g *Generator) IntN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(n)
}

// Float64 returns a pseudo-random float in [0, 1).
func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// Records generates count records shaped for endpoint. Known endpoints are
// /listings, /reservations, /guests and /calendar; anything else gets
// generic items typed after the endpoint name.
func (g *Generator) Records(endpoint string, count int) []*types.Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	records := make([]*types.Record, 0, count)
	for i := 0; i < count; i++ {
		n := i + 1
		var r *types.Record
		switch endpoint {
		case "/listings":
			r = types.NewRecord(
				"id", fmt.Sprintf("prop_%d", n),
				"name", fmt.Sprintf("Property %d", n),
				"city", g.pick("Miami", "New York", "Los Angeles"),
				"bedrooms", float64(g.rnd.IntN(4)+1),
				"status", g.pick("Active", "Inactive"),
				"price", fmt.Sprintf("$%d/night", g.rnd.IntN(300)+100),
			)
		case "/reservations":
			checkIn := now.Add(time.Duration(g.rnd.Float64() * 30 * float64(day)))
			checkOut := now.Add(time.Duration((g.rnd.Float64()*30 + 3) * float64(day)))
			r = types.NewRecord(
				"id", fmt.Sprintf("res_%d", n),
				"guestName", fmt.Sprintf("Guest %d", n),
				"checkIn", checkIn.Format(dateLayout),
				"checkOut", checkOut.Format(dateLayout),
				"status", g.pick("Confirmed", "Pending", "Cancelled"),
				"total", fmt.Sprintf("$%d", g.rnd.IntN(2000)+500),
			)
		case "/guests":
			joined := now.Add(-time.Duration(g.rnd.Float64() * 365 * float64(day)))
			r = types.NewRecord(
				"id", fmt.Sprintf("guest_%d", n),
				"name", fmt.Sprintf("Guest %d", n),
				"email", fmt.Sprintf("guest%d@example.com", n),
				"phone", fmt.Sprintf("+1-555-%d-%d", g.rnd.IntN(900)+100, g.rnd.IntN(9000)+1000),
				"joinDate", joined.Format(dateLayout),
				"bookings", float64(g.rnd.IntN(10)+1),
			)
		case "/calendar":
			r = types.NewRecord(
				"id", fmt.Sprintf("cal_%d", n),
				"propertyId", fmt.Sprintf("prop_%d", g.rnd.IntN(10)+1),
				"date", now.Add(time.Duration(i)*day).Format(dateLayout),
				"available", g.rnd.Float64() > 0.3,
				"price", fmt.Sprintf("$%d", g.rnd.IntN(200)+100),
				"minStay", float64(g.rnd.IntN(3)+1),
			)
		default:
			kind := "unknown"
			if endpoint != "" {
				kind = endpoint[1:]
			}
			r = types.NewRecord(
				"id", fmt.Sprintf("item_%d", n),
				"name", fmt.Sprintf("Item %d", n),
				"type", kind,
				"status", "Active",
				"created", now.Format(dateLayout),
			)
		}
		records = append(records, r)
	}
	return records
}

// pick must be called with g.mu held.
func (g *Generator) pick(options ...string) string {
	return options[g.rnd.IntN(len(options))]
}
