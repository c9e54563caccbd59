// Package pseudonym assigns display names to secrets. Names carry no information about the sender.
package pseudonym

import (
	"math/rand/v2"
	"slices"
	"sync"
)

var names = []string{
	"Mysterious Owl 🦉",
	"Ghost Cat 🐾",
	"Mysterious Banana 🍌",
	"Hidden Coder 👾",
	"Silent Star ✨",
	"Secret Penguin 🐧",
	"Phantom Debugger 👻",
	"Anonymous Bee 🐝",
}

// Names returns a copy of the pool.
func Names() []string { return slices.Clone(names) }

// IsKnown reports whether name belongs to the pool.
func IsKnown(name string) bool { return slices.Contains(names, name) }

// Generator picks names uniformly at random. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator drawing from src. Tests pass a seeded source.
func New(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// NewSeeded is shorthand for New with a PCG source.
func NewSeeded(seed1, seed2 uint64) *Generator {
	return New(rand.NewPCG(seed1, seed2))
}

// NewRandom seeds from the runtime's entropy.
func NewRandom() *Generator {
	return NewSeeded(rand.Uint64(), rand.Uint64())
}

func (g *Generator) Next() string {
	g.mu.Lock()
	i := g.rnd.IntN(len(names))
	g.mu.Unlock()
	return names[i]
}
