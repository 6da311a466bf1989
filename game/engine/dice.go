package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"sync"

	"golang.org/x/exp/rand"
)

// Dice produces one roll in the range 1..DiceFaces.
type Dice interface {
	Roll() int
}

// DiceFunc adapts a plain function to Dice.
type DiceFunc func() int

// Roll calls f.
func (f DiceFunc) Roll() int { return f() }

// RandomDice is a seeded uniform six-sided die, safe for concurrent use.
type RandomDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDice creates a die from seed. A zero seed draws one from crypto/rand.
func NewRandomDice(seed uint64) *RandomDice {
	if seed == 0 {
		seed = newSeed()
	}
	return &RandomDice{rng: rand.New(rand.NewSource(seed))}
}

// Roll returns a value between 1 and 6.
func (d *RandomDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(DiceFaces) + 1
}

// Intn exposes the underlying generator for callers sharing the same seed.
func (d *RandomDice) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(n)
}

func newSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return binary.LittleEndian.Uint64(b[:])
}

// ScriptedDice replays a fixed sequence of values, cycling when exhausted.
type ScriptedDice struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewScriptedDice creates a die that returns values in order.
func NewScriptedDice(values ...int) *ScriptedDice {
	return &ScriptedDice{values: values}
}

// Roll returns the next scripted value.
func (d *ScriptedDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.values) == 0 {
		return 1
	}
	v := d.values[d.next%len(d.values)]
	d.next++
	return v
}

// Push appends more values to the script.
func (d *ScriptedDice) Push(values ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = append(d.values, values...)
}
