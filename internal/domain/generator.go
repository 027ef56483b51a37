package domain

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// BitSchedule controls the bit size of successive generated challenges.
// After each challenge the size grows by Step and wraps back to Base once it
// exceeds Max. A zero Step keeps every challenge at Base bits.
type BitSchedule struct {
	Base int
	Max  int
	Step int
}

// DefaultBitSchedule returns the schedule used by the deployed study:
// a constant 64 bits.
func DefaultBitSchedule() BitSchedule {
	return BitSchedule{Base: 64, Max: 128, Step: 0}
}

// Generator produces fresh challenges. It owns its alphabet cursor and bit
// counter, so the sequence it produces depends only on its construction
// arguments. A Generator is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	names    []string
	cursor   int
	bits     int
	schedule BitSchedule
}

// NewGenerator creates a Generator drawing symbols from rng. The alphabet
// cursor starts at a position picked by rng, as the deployed study did.
func NewGenerator(rng *rand.Rand, schedule BitSchedule) *Generator {
	names := Alphabets()
	return NewGeneratorAt(rng, schedule, rng.IntN(len(names)))
}

// NewGeneratorAt creates a Generator whose alphabet cursor starts at the
// given registry index.
func NewGeneratorAt(rng *rand.Rand, schedule BitSchedule, start int) *Generator {
	if schedule.Base <= 0 {
		schedule = DefaultBitSchedule()
	}
	if schedule.Max < schedule.Base {
		schedule.Max = schedule.Base
	}
	names := Alphabets()
	return &Generator{
		rng:      rng,
		names:    names,
		cursor:   ((start % len(names)) + len(names)) % len(names),
		bits:     schedule.Base,
		schedule: schedule,
	}
}

// Next returns a new challenge on the next alphabet in registry order.
func (g *Generator) Next() Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()

	name := g.names[g.cursor]
	g.cursor = (g.cursor + 1) % len(g.names)

	bits := g.bits
	g.bits += g.schedule.Step
	if g.bits > g.schedule.Max {
		g.bits = g.schedule.Base
	}

	alphabet, _ := LookupAlphabet(name)
	size := SymbolCountToEncode(bits, name)

	var b strings.Builder
	for i := 0; i < size; i++ {
		b.WriteString(alphabet.Symbols[g.rng.IntN(alphabet.Size())])
	}

	return Challenge{Alphabet: name, Bits: bits, Expected: b.String()}
}
