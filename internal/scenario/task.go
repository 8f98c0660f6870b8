package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
)

// TaskFunc performs one unit of simulated work for a user.
//
// Request failures are reported through the user's session and should not
// be returned; a returned error means the task itself could not run.
type TaskFunc func(ctx context.Context, u *User) error

// Task is one weighted entry in a scenario's action table.
type Task struct {
	// Name identifies the task; unique within a scenario.
	Name string

	// Weight is the relative selection probability. Must be positive.
	Weight int

	// Fn is called each time the task is selected.
	Fn TaskFunc
}

// Picker selects tasks with probability proportional to their weight.
type Picker struct {
	tasks      []*Task
	cumulative []int
	total      int
}

// NewPicker builds a picker over tasks. Tasks must already be valid.
func NewPicker(tasks []Task) (*Picker, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("at least one task is required")
	}

	p := &Picker{
		tasks:      make([]*Task, len(tasks)),
		cumulative: make([]int, len(tasks)),
	}
	for i := range tasks {
		if tasks[i].Weight <= 0 {
			return nil, fmt.Errorf("task %q: weight must be positive, got %d", tasks[i].Name, tasks[i].Weight)
		}
		p.total += tasks[i].Weight
		p.tasks[i] = &tasks[i]
		p.cumulative[i] = p.total
	}
	return p, nil
}

// Pick returns the next task.
func (p *Picker) Pick(r *rand.Rand) *Task {
	if len(p.tasks) == 1 {
		return p.tasks[0]
	}
	n := r.Intn(p.total)
	// First index whose cumulative weight exceeds n.
	i := sort.SearchInts(p.cumulative, n+1)
	return p.tasks[i]
}

// share returns the expected selection share of the named task.
func (p *Picker) share(name string) float64 {
	var w int
	for _, t := range p.tasks {
		if t.Name == name {
			w += t.Weight
		}
	}
	return float64(w) / float64(p.total)
}
