package scenario

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *User) error { return nil }

func TestNewPicker_Errors(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
	}{
		{"empty", nil},
		{"zero weight", []Task{{Name: "a", Weight: 0, Fn: noop}}},
		{"negative weight", []Task{{Name: "a", Weight: 1, Fn: noop}, {Name: "b", Weight: -2, Fn: noop}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPicker(tt.tasks)
			assert.Error(t, err)
		})
	}
}

func TestPicker_SingleTaskAlwaysSelected(t *testing.T) {
	p, err := NewPicker([]Task{{Name: "index", Weight: 4, Fn: noop}})
	require.NoError(t, err)

	r := rand.New(rand.NewSource(1))
	const cycles = 1000
	hits := 0
	for i := 0; i < cycles; i++ {
		if p.Pick(r).Name == "index" {
			hits++
		}
	}

	assert.Equal(t, cycles, hits)
	assert.Equal(t, 1.0, p.share("index"))
}

func TestPicker_ProportionalToWeight(t *testing.T) {
	tasks := []Task{
		{Name: "a", Weight: 1, Fn: noop},
		{Name: "b", Weight: 3, Fn: noop},
		{Name: "c", Weight: 6, Fn: noop},
	}
	p, err := NewPicker(tasks)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(42))
	const cycles = 100000
	counts := map[string]int{}
	for i := 0; i < cycles; i++ {
		counts[p.Pick(r).Name]++
	}

	for _, task := range tasks {
		want := p.share(task.Name)
		got := float64(counts[task.Name]) / cycles
		assert.InDelta(t, want, got, 0.01, "share of %s", task.Name)
	}
	assert.InDelta(t, 0.1, p.share("a"), 1e-9)
	assert.InDelta(t, 0.3, p.share("b"), 1e-9)
	assert.InDelta(t, 0.6, p.share("c"), 1e-9)
}

func TestPicker_EveryIndexReachable(t *testing.T) {
	p, err := NewPicker([]Task{
		{Name: "a", Weight: 1, Fn: noop},
		{Name: "b", Weight: 1, Fn: noop},
	})
	require.NoError(t, err)

	r := rand.New(rand.NewSource(7))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[p.Pick(r).Name] = true
	}
	assert.True(t, seen["a"])
	assert.True(t, seen["b"])
}
