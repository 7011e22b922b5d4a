// Package questgen produces the daily quest list.
//
// Generation is deterministic for a given seed record: every device that
// holds the same seed renders the same quests for the day, which is the
// whole point of syncing the seed in the first place.
package questgen

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// Quest is a single suggested task for the day.
type Quest struct {
	Title    string `yaml:"title"`
	Points   int    `yaml:"points"`
	Category string `yaml:"category"`
}

// Generator produces a quest list for a daily seed.
type Generator interface {
	Generate(ctx context.Context, rec model.SeedRecord, count int) ([]Quest, error)
}

//go:embed quests.yaml
var defaultPool []byte

// poolFile is the YAML layout of a quest pool.
type poolFile struct {
	Quests []Quest `yaml:"quests"`
}

// StaticGenerator picks quests from a fixed pool, shuffled by the daily
// seed. Same seed, same selection.
type StaticGenerator struct {
	pool []Quest
}

// NewStatic creates a StaticGenerator from the embedded default pool.
func NewStatic() (*StaticGenerator, error) {
	return newStaticFromYAML(defaultPool)
}

// NewStaticFromFile creates a StaticGenerator from a user-supplied pool
// file, so the quest list can be customized without rebuilding.
func NewStaticFromFile(path string) (*StaticGenerator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quest pool: %w", err)
	}
	return newStaticFromYAML(data)
}

func newStaticFromYAML(data []byte) (*StaticGenerator, error) {
	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse quest pool: %w", err)
	}
	if len(f.Quests) == 0 {
		return nil, fmt.Errorf("quest pool is empty")
	}
	for i, q := range f.Quests {
		if q.Title == "" {
			return nil, fmt.Errorf("quest %d has no title", i)
		}
	}
	return &StaticGenerator{pool: f.Quests}, nil
}

// Generate returns count quests drawn from the pool in seed order. A
// count larger than the pool returns the whole pool.
func (g *StaticGenerator) Generate(ctx context.Context, rec model.SeedRecord, count int) ([]Quest, error) {
	if count <= 0 {
		return nil, fmt.Errorf("quest count must be positive, got %d", count)
	}
	if count > len(g.pool) {
		count = len(g.pool)
	}

	order := make([]Quest, len(g.pool))
	copy(order, g.pool)

	rng := rand.New(rand.NewSource(rec.Seed))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return order[:count], nil
}

// PoolSize returns the number of quests available.
func (g *StaticGenerator) PoolSize() int {
	return len(g.pool)
}
