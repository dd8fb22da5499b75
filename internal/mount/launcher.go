package mount

import (
	"bytes"
	"os/exec"
	"strings"
	"sync"
)

// Process is a launched child process that is polled, not waited on.
type Process interface {
	// Exited reports the exit code once the process has finished.
	Exited() (code int, done bool)
	// Kill terminates the process.
	Kill() error
	// Stderr returns what the process wrote to stderr, once it has exited.
	Stderr() string
}

// Launcher starts child processes.
type Launcher interface {
	Launch(name string, args ...string) (Process, error)
}

// ExecLauncher runs real commands with os/exec.
type ExecLauncher struct{}

func (ExecLauncher) Launch(name string, args ...string) (Process, error) {
	p := &execProcess{done: make(chan struct{})}
	p.cmd = exec.Command(name, args...)
	p.cmd.Stderr = &p.stderr
	if err := p.cmd.Start(); err != nil {
		return nil, err
	}
	go func() {
		p.cmd.Wait()
		p.mu.Lock()
		p.code = p.cmd.ProcessState.ExitCode()
		p.mu.Unlock()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stderr bytes.Buffer
	done   chan struct{}

	mu   sync.Mutex
	code int
}

func (p *execProcess) Exited() (int, bool) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.code, true
	default:
		return 0, false
	}
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) Stderr() string {
	select {
	case <-p.done:
		return strings.TrimSpace(p.stderr.String())
	default:
		return ""
	}
}
