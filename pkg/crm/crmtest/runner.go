// Package crmtest provides a scripted command runner for tests of code
// that drives the cluster manager.
package crmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/cuemby/hacluster/pkg/crm"
)

// Response is the scripted outcome of one command line
type Response struct {
	Output string
	Err    error
}

// Handler computes a response from the full argument list
type Handler func(name string, args []string) Response

type rule struct {
	line      string
	prefix    bool
	responses []Response
	handler   Handler
}

// Runner records every command line it is asked to run and answers from a
// script. Lines with no matching rule succeed with empty output.
type Runner struct {
	mu    sync.Mutex
	rules []*rule
	calls []string
}

var _ crm.Runner = (*Runner)(nil)

// New returns an empty script
func New() *Runner {
	return &Runner{}
}

// On answers line with output. Several calls for the same line are consumed
// in order; the last one keeps answering.
func (r *Runner) On(line, output string) *Runner {
	return r.add(line, false, Response{Output: output})
}

// OnError makes line fail with the given exit code
func (r *Runner) OnError(line string, exitCode int, stderr string) *Runner {
	return r.add(line, false, Response{Err: Failure(line, exitCode, stderr)})
}

// OnPrefix answers every line starting with prefix
func (r *Runner) OnPrefix(prefix string, resp Response) *Runner {
	return r.add(prefix, true, resp)
}

// OnFunc answers every line starting with prefix through fn
func (r *Runner) OnFunc(prefix string, fn Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, &rule{line: prefix, prefix: true, handler: fn})
	return r
}

func (r *Runner) add(line string, prefix bool, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rl := range r.rules {
		if rl.line == line && rl.prefix == prefix && rl.handler == nil {
			rl.responses = append(rl.responses, resp)
			return r
		}
	}
	r.rules = append(r.rules, &rule{line: line, prefix: prefix, responses: []Response{resp}})
	return r
}

// Run implements crm.Runner
func (r *Runner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	r.mu.Lock()
	r.calls = append(r.calls, line)
	resp, ok := r.match(line, name, args)
	r.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return []byte(resp.Output), resp.Err
}

// match prefers exact rules over prefix rules
func (r *Runner) match(line, name string, args []string) (Response, bool) {
	for _, exact := range []bool{true, false} {
		for _, rl := range r.rules {
			if rl.prefix == exact {
				continue
			}
			if exact && rl.line != line {
				continue
			}
			if !exact && !strings.HasPrefix(line, rl.line) {
				continue
			}
			if rl.handler != nil {
				return rl.handler(name, args), true
			}
			resp := rl.responses[0]
			if len(rl.responses) > 1 {
				rl.responses = rl.responses[1:]
			}
			return resp, true
		}
	}
	return Response{}, false
}

// Calls returns every command line run so far
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// CallsWithPrefix returns the command lines starting with prefix
func (r *Runner) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how often line was run
func (r *Runner) Count(line string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == line {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls but keeps the script
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Failure builds the error a failed command returns
func Failure(line string, exitCode int, stderr string) error {
	return &crm.CommandError{
		Args:     strings.Fields(line),
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}
