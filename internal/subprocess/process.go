package subprocess

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/agentbridge-go/internal/cli"
	"github.com/wagiedev/agentbridge-go/internal/config"
	"github.com/wagiedev/agentbridge-go/internal/errors"
)

const (
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Older output is dropped so the buffer always holds the most recent lines.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
	// linesBufferSize is how many stdout lines may queue between queries.
	linesBufferSize = 64
	// readBufferSize is the read buffer of the stdout and stderr readers.
	readBufferSize = 64 * 1024
)

// Process is a running worker child process.
type Process struct {
	log            *slog.Logger
	cmd            *exec.Cmd
	stdin          io.WriteCloser
	stderrCallback func(string)

	lines   chan []byte
	exited  chan struct{} // closed once the child has been reaped
	closing chan struct{} // closed when Terminate begins
	state   *os.ProcessState

	stderrMu  sync.Mutex
	stderrBuf []byte

	mu          sync.Mutex // protects stdin writes
	stdinClosed bool
	closeOnce   sync.Once
}

// Compile-time verification that Process implements config.Worker.
var _ config.Worker = (*Process)(nil)

// Spawner starts Process workers. It is the default config.Spawner.
type Spawner struct{}

// Compile-time verification that Spawner implements config.Spawner.
var _ config.Spawner = Spawner{}

// Spawn implements config.Spawner.
func (Spawner) Spawn(ctx context.Context, options *config.Options) (config.Worker, error) {
	p, err := Spawn(ctx, options)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Spawn starts the worker process described by options.
//
// The executable and arguments come from the build mode (see cli.Invocation)
// and the environment from cli.BuildEnvironment. Stdin, stdout and stderr
// are all connected to pipes owned by the returned Process.
//
// ctx only bounds discovery and startup; the worker keeps running after
// ctx is done and must be stopped with Terminate.
//
// Returns SpawnError if the executable cannot be found or started.
func Spawn(ctx context.Context, options *config.Options) (*Process, error) {
	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "subprocess")

	command, args := cli.Invocation(options)

	path, err := cli.NewDiscoverer(&cli.Config{Command: command, Logger: log}).Discover(ctx)
	if err != nil {
		return nil, &errors.SpawnError{Path: command, Err: err}
	}

	cwd := options.Cwd
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("get working directory: %w", err)}
		}
	}

	log.Info("Starting worker", "path", path, "args", args, "cwd", cwd, "mode", options.Mode)

	//nolint:gosec // G204: launching the configured worker is the purpose of this package
	cmd := exec.Command(path, args...)
	cmd.Dir = cwd
	cmd.Env = cli.BuildEnvironment(log, options)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start worker process", "error", err)

		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("start process: %w", err)}
	}

	maxLine := options.MaxLineSize
	if maxLine <= 0 {
		maxLine = config.DefaultMaxLineSize
	}

	p := &Process{
		log:            log.With("pid", cmd.Process.Pid),
		cmd:            cmd,
		stdin:          stdin,
		stderrCallback: options.Stderr,
		lines:          make(chan []byte, linesBufferSize),
		exited:         make(chan struct{}),
		closing:        make(chan struct{}),
	}

	p.startPumps(stdout, stderr, maxLine)

	p.log.Info("Worker started successfully")

	return p, nil
}

// startPumps starts the stdout and stderr readers and the reaper.
func (p *Process) startPumps(stdout, stderr io.ReadCloser, maxLine int) {
	var g errgroup.Group

	g.Go(func() error {
		defer stderr.Close()

		return p.pumpStderr(stderr, maxLine)
	})

	g.Go(func() error {
		defer stdout.Close()
		defer close(p.lines)

		return p.pumpStdout(stdout, maxLine)
	})

	// A worker whose output can no longer be read is killed so that it
	// reads as exited and gets replaced.
	go func() {
		if err := g.Wait(); err != nil {
			p.log.Warn("Worker output unreadable, killing worker", "error", err)

			if err := signalProcess(p.cmd.Process, os.Kill); err != nil {
				p.log.Debug("Kill after read failure", "error", err)
			}
		}
	}()

	// Reaped with Process.Wait rather than Cmd.Wait so exit is observed even
	// while stdout lines are still queued; the pumps close the pipes.
	go func() {
		state, err := p.cmd.Process.Wait()

		p.state = state

		close(p.exited)

		if err != nil {
			p.log.Warn("Failed to wait for worker", "error", err)

			return
		}

		p.log.Info("Worker exited", "exit_code", state.ExitCode())
	}()
}

func (p *Process) pumpStdout(stdout io.Reader, maxLine int) error {
	reader := bufio.NewReaderSize(stdout, readBufferSize)

	for {
		line, dropped, err := readLine(reader, maxLine)

		switch {
		case dropped > 0:
			p.log.Warn("Dropping over-long worker line", "bytes", dropped, "max_line_size", maxLine)
		case len(line) > 0 || err == nil:
			select {
			case p.lines <- line:
			case <-p.closing:
				return nil
			}
		}

		if stderrors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			p.log.Error("Failed to read worker output", "error", err)

			return fmt.Errorf("read stdout: %w", err)
		}
	}
}

func (p *Process) pumpStderr(stderr io.Reader, maxLine int) error {
	reader := bufio.NewReaderSize(stderr, readBufferSize)

	for {
		raw, dropped, err := readLine(reader, maxLine)
		if dropped > 0 {
			p.log.Debug("Dropping over-long stderr line", "bytes", dropped)
		} else if len(raw) > 0 || err == nil {
			p.appendStderr(string(raw))
		}

		if err != nil {
			// Don't fail on stderr errors; the process may have exited.
			if !stderrors.Is(err, io.EOF) {
				p.log.Debug("Stderr read error", "error", err)
			}

			return nil
		}
	}
}

func (p *Process) appendStderr(line string) {
	p.log.Debug("Worker stderr", "line", line)

	p.stderrMu.Lock()

	if len(p.stderrBuf) > 0 {
		p.stderrBuf = append(p.stderrBuf, '\n')
	}

	p.stderrBuf = append(p.stderrBuf, line...)

	if over := len(p.stderrBuf) - maxStderrBufferSize; over > 0 {
		p.stderrBuf = append(p.stderrBuf[:0], p.stderrBuf[over:]...)
	}

	p.stderrMu.Unlock()

	if p.stderrCallback != nil {
		p.stderrCallback(line)
	}
}

// readLine reads one line without its line terminator. A line longer than
// maxLine is consumed in full but not returned; dropped is its length.
// The returned slice is owned by the caller.
func readLine(r *bufio.Reader, maxLine int) (line []byte, dropped int, err error) {
	for {
		chunk, readErr := r.ReadSlice('\n')

		switch {
		case dropped > 0:
			dropped += len(chunk)
		case len(line)+len(bytes.TrimRight(chunk, "\r\n")) > maxLine:
			dropped = len(line) + len(chunk)
			line = nil
		default:
			line = append(line, chunk...)
		}

		if stderrors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}

		if dropped > 0 {
			return nil, dropped, readErr
		}

		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))

		return line, 0, readErr
	}
}

// Pid returns the worker's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Lines implements config.Worker.
func (p *Process) Lines() <-chan []byte {
	return p.lines
}

// Exited implements config.Worker.
func (p *Process) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Stderr returns the most recent stderr output.
func (p *Process) Stderr() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()

	return string(p.stderrBuf)
}

// Write sends data to the worker's stdin.
//
// A trailing newline is appended if missing. The write runs in a goroutine
// so a worker that stops reading cannot block the caller past ctx; in that
// case stdin is closed to unblock the write and later calls return
// ErrStdinClosed.
func (p *Process) Write(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdinClosed {
		return errors.ErrStdinClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Explicit copy to avoid mutating the caller's backing array.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		newData := make([]byte, len(data)+1)
		copy(newData, data)
		newData[len(data)] = '\n'
		data = newData
	}

	p.log.Debug("Writing to worker", "data_len", len(data))

	done := make(chan error, 1)

	go func() {
		_, err := p.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		p.log.Debug("Context cancelled during write, closing stdin")

		_ = p.stdin.Close()
		p.stdinClosed = true

		select {
		case <-done:
		case <-time.After(time.Second):
			p.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// Terminate stops the worker.
//
// It sends SIGTERM and waits up to grace for the process to exit, then
// kills it and waits up to grace again. ctx ending during the first wait
// skips straight to the kill. Returns StopError if a signal cannot be
// delivered or exit is never observed. Safe to call on an exited process.
func (p *Process) Terminate(ctx context.Context, grace time.Duration) error {
	p.closeOnce.Do(func() {
		close(p.closing)

		p.mu.Lock()
		if !p.stdinClosed {
			_ = p.stdin.Close() // Best-effort: pipe may already be closed.
			p.stdinClosed = true
		}
		p.mu.Unlock()
	})

	if p.Exited() {
		return nil
	}

	pid := p.Pid()

	p.log.Debug("Terminating worker", "grace", grace)

	if err := signalProcess(p.cmd.Process, syscall.SIGTERM); err != nil {
		// Platforms without SIGTERM go straight to kill.
		p.log.Debug("SIGTERM not delivered, killing", "error", err)
	} else {
		select {
		case <-p.exited:
			return nil
		case <-time.After(grace):
			p.log.Warn("Worker did not exit after SIGTERM, killing")
		case <-ctx.Done():
			p.log.Debug("Context done while waiting for exit, killing", "error", ctx.Err())
		}
	}

	if err := signalProcess(p.cmd.Process, os.Kill); err != nil {
		return &errors.StopError{Pid: pid, Err: fmt.Errorf("kill: %w", err)}
	}

	select {
	case <-p.exited:
		return nil
	case <-time.After(grace):
		return &errors.StopError{Pid: pid, Err: fmt.Errorf("exit not confirmed after %s", grace)}
	}
}

// ExitCode returns the exit code once the process has exited, or -1.
func (p *Process) ExitCode() int {
	if !p.Exited() || p.state == nil {
		return -1
	}

	return p.state.ExitCode()
}

// signalProcess sends sig to a process, returning nil if the process
// has already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if stderrors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}
