package sampler

import (
	"context"
	"sync"
)

// Group runs sampling tasks on a shared context. The zero value is ready
// to use.
type Group struct {
	wg sync.WaitGroup
}

// Go starts each task in its own goroutine.
func (g *Group) Go(ctx context.Context, tasks ...*Task) {
	for _, task := range tasks {
		g.wg.Add(1)
		go func(t *Task) {
			defer g.wg.Done()
			t.Run(ctx)
		}(task)
	}
}

// Wait blocks until every started task has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
