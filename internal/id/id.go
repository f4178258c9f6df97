package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULID trade identifiers. ULIDs sort by creation
// time, which keeps journal tables and closed-trade listings in
// chronological order for free; monotonic entropy keeps IDs generated
// within the same millisecond ordered too.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator builds a Generator over the given entropy source. Tests
// pass a seeded math/rand source to make the entropy reproducible.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// New returns the ID for the current wall-clock time.
func (g *Generator) New() string {
	return g.NewAt(time.Now().UTC())
}

// NewAt returns the ID for an explicit timestamp. Combined with a seeded
// entropy source this pins the full ID, which deterministic replays rely
// on.
func (g *Generator) NewAt(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	uid, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	return uid.String()
}

var defaultGen *Generator

func init() {
	// Seed a PRNG from crypto/rand so the process-wide generator is
	// unpredictable across runs.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	defaultGen = NewGenerator(rand.New(rand.NewSource(seed)))
}

// New returns a ULID string from the process-wide generator.
func New() string {
	return defaultGen.New()
}
