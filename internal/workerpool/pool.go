// Package workerpool runs a function over a set of inputs on a bounded
// number of goroutines.
package workerpool

import (
	"runtime"
	"sync"
)

type task[In any] struct {
	index int
	in    In
}

// Output pairs a result with the position of its input.
type Output[Out any] struct {
	Index int
	Value Out
}

// Pool distributes inputs across workers and collects their outputs.
type Pool[In any, Out any] struct {
	workers int
	tasks   chan task[In]
	outputs chan Output[Out]
	wg      sync.WaitGroup
	next    int
}

// New creates a pool for up to size inputs. workers <= 0 uses one worker
// per CPU. The pool never starts more workers than inputs.
func New[In any, Out any](workers, size int) *Pool[In, Out] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if size > 0 {
		workers = min(workers, size)
	}
	return &Pool[In, Out]{
		workers: workers,
		tasks:   make(chan task[In], size),
		outputs: make(chan Output[Out], size),
	}
}

// Workers returns the number of workers the pool starts.
func (p *Pool[In, Out]) Workers() int {
	return p.workers
}

// Start launches the workers.
func (p *Pool[In, Out]) Start(fn func(In) Out) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				p.outputs <- Output[Out]{Index: t.index, Value: fn(t.in)}
			}
		}()
	}
}

// Submit queues an input. Inputs are numbered in submission order.
// Submit must not be called concurrently.
func (p *Pool[In, Out]) Submit(in In) {
	p.tasks <- task[In]{index: p.next, in: in}
	p.next++
}

// Close stops accepting inputs. Outputs is closed once every queued input
// has been processed.
func (p *Pool[In, Out]) Close() {
	close(p.tasks)
	go func() {
		p.wg.Wait()
		close(p.outputs)
	}()
}

// Outputs returns the output channel. Outputs arrive in completion order.
func (p *Pool[In, Out]) Outputs() <-chan Output[Out] {
	return p.outputs
}

// Map applies fn to every input on up to workers goroutines and returns the
// results in input order.
func Map[In any, Out any](workers int, inputs []In, fn func(In) Out) []Out {
	results := make([]Out, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	p := New[In, Out](workers, len(inputs))
	p.Start(fn)
	for _, in := range inputs {
		p.Submit(in)
	}
	p.Close()

	for out := range p.Outputs() {
		results[out.Index] = out.Value
	}
	return results
}
