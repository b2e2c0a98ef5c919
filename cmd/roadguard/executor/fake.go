package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is a scripted Runner. Responses are keyed by the command line
// ("wg genkey"); the first registered prefix match wins.
type Fake struct {
	mu        sync.Mutex
	responses []fakeResponse
	Calls     []Cmd
}

type fakeResponse struct {
	prefix string
	res    Result
	err    error
}

func NewFake() *Fake {
	return &Fake{}
}

// On scripts the result returned for commands starting with prefix.
func (f *Fake) On(prefix string, res Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, res: res})
	return f
}

// OnStdout scripts a successful command printing stdout.
func (f *Fake) OnStdout(prefix, stdout string) *Fake {
	return f.On(prefix, Result{Stdout: []byte(stdout)})
}

// OnFail scripts a command exiting with code and stderr.
func (f *Fake) OnFail(prefix string, code int, stderr string) *Fake {
	return f.On(prefix, Result{ExitCode: code, Stderr: []byte(stderr)})
}

// OnError scripts a command that cannot be started.
func (f *Fake) OnError(prefix string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, err: err})
	return f
}

func (f *Fake) Run(_ context.Context, c Cmd) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)

	line := c.String()
	for _, r := range f.responses {
		if strings.HasPrefix(line, r.prefix) {
			return r.res, r.err
		}
	}
	return Result{}, fmt.Errorf("fake executor: unexpected command %q", line)
}

// CommandLines lists every command run so far, in order.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}
