// Package loanservice serves loan-service functions to the fetcher, over
// gRPC for RequestResponse calls and over RabbitMQ for Event calls.
package loanservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownFunction = errors.New("unknown function")

// Function handles one invocation. A nil result means nothing was found.
type Function func(ctx context.Context, payload map[string]any) (map[string]any, error)

type Registry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]Function)}
}

func (r *Registry) Register(target string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.functions[target] = fn
}

func (r *Registry) Lookup(target string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.functions[target]
	return fn, ok
}

func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]string, 0, len(r.functions))
	for t := range r.functions {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	return targets
}

// Call runs the function registered under target.
func (r *Registry) Call(ctx context.Context, target string, payload map[string]any) (map[string]any, error) {
	fn, ok := r.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, target)
	}

	return fn(ctx, payload)
}
