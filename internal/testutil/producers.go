package testutil

import (
	"context"
	"sync"
	"time"
)

// Step scripts how ScriptedProducer handles one target.
type Step struct {
	// Delay before the operation settles.
	Delay time.Duration
	// Value returned on success. Defaults to the target itself.
	Value string
	// Err, when set, is returned instead of Value.
	Err error
	// Panic, when set, makes the operation panic with this value.
	Panic interface{}
	// Hold blocks the operation until Release(target) or cancellation.
	Hold bool
}

// ScriptedProducer is an operation producer whose per-target behavior is
// configured up front. It records every call and every operation that
// observed cancellation.
type ScriptedProducer struct {
	mu      sync.Mutex
	steps   map[string]Step
	gates   map[string]chan struct{}
	calls   []string
	aborted []string
	options map[string]map[string]any
}

// NewScriptedProducer creates a producer with no scripted steps. Unscripted
// targets settle immediately with their own name as the value.
func NewScriptedProducer() *ScriptedProducer {
	return &ScriptedProducer{
		steps:   make(map[string]Step),
		gates:   make(map[string]chan struct{}),
		options: make(map[string]map[string]any),
	}
}

// On scripts target and returns p for chaining.
func (p *ScriptedProducer) On(target string, step Step) *ScriptedProducer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps[target] = step
	if step.Hold {
		p.gates[target] = make(chan struct{})
	}
	return p
}

// Release unblocks a held target.
func (p *ScriptedProducer) Release(target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gate, ok := p.gates[target]; ok {
		close(gate)
		delete(p.gates, target)
	}
}

// Produce has the operation-producer signature and can be passed wherever
// a producer of string values is expected.
func (p *ScriptedProducer) Produce(ctx context.Context, target string, opts map[string]any) (string, error) {
	p.mu.Lock()
	step, ok := p.steps[target]
	gate := p.gates[target]
	p.calls = append(p.calls, target)
	p.options[target] = opts
	p.mu.Unlock()

	if !ok {
		return target, nil
	}
	if step.Panic != nil {
		panic(step.Panic)
	}

	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			p.recordAbort(target)
			return "", ctx.Err()
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			p.recordAbort(target)
			return "", ctx.Err()
		}
	}

	if step.Err != nil {
		return "", step.Err
	}
	if step.Value != "" {
		return step.Value, nil
	}
	return target, nil
}

// Calls returns the targets in the order the producer was invoked.
func (p *ScriptedProducer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Aborted returns the targets whose operations observed cancellation.
func (p *ScriptedProducer) Aborted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.aborted...)
}

// OptionsFor returns the options of the most recent call for target.
func (p *ScriptedProducer) OptionsFor(target string) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.options[target]
}

func (p *ScriptedProducer) recordAbort(target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aborted = append(p.aborted, target)
}
