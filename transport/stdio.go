package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/types"
)

// Stdio speaks newline-delimited JSON-RPC to a child process over its
// standard pipes. One Stdio owns one subprocess; the subprocess is
// killed when the adapter closes, including on error exit paths.
type Stdio struct {
	name    string
	timeout time.Duration
	logger  zerolog.Logger

	cmd   *exec.Cmd
	stdin io.WriteCloser

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan Response
	closed  bool

	closeOnce sync.Once
	closeErr  error
}

// DialStdio starts the configured command, wires up its pipes and runs
// the initialize handshake. A handshake failure kills the subprocess
// before returning.
func DialStdio(cfg config.ServerConfig, logger zerolog.Logger) (*Stdio, error) {
	logger = logger.With().Str("adapter", "stdio").Str("server", cfg.Name).Logger()
	logger.Debug().Str("command", cfg.Command).Strs("arguments", cfg.Arguments).Msg("starting MCP server process")

	cmd := exec.Command(cfg.Command, cfg.Arguments...)

	env := os.Environ()
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	s := newStdio(cfg.Name, stdin, timeout, logger)
	s.cmd = cmd

	go s.readLoop(stdout)
	go s.logStderr(stderr)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.initialize(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize handshake with %s failed: %w", cfg.Name, err)
	}

	logger.Debug().Int("pid", cmd.Process.Pid).Msg("MCP server process started")
	return s, nil
}

// newStdio builds the protocol core without a subprocess attached
func newStdio(name string, stdin io.WriteCloser, timeout time.Duration, logger zerolog.Logger) *Stdio {
	return &Stdio{
		name:    name,
		timeout: timeout,
		logger:  logger,
		stdin:   stdin,
		nextID:  1,
		pending: make(map[int64]chan Response),
	}
}

func (s *Stdio) Name() string {
	return s.name
}

// readLoop routes response lines to their waiting callers by request ID.
// Non-JSON lines and notifications are skipped.
func (s *Stdio) readLoop(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				s.logger.Debug().Err(err).Msg("stopped reading responses")
			}
			s.failPending()
			return
		}

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var msg Response
		if err := json.Unmarshal(line, &msg); err != nil {
			// Startup chatter from wrapper scripts is common; skip it
			continue
		}

		if msg.Method != "" {
			s.logger.Debug().Str("method", msg.Method).Msg("notification received")
			continue
		}

		if msg.ID == nil {
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[*msg.ID]
		if ok {
			delete(s.pending, *msg.ID)
		}
		s.mu.Unlock()

		if ok {
			ch <- msg
		}
	}
}

// failPending closes every waiting call channel after the pipe breaks
func (s *Stdio) failPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, ch := range s.pending {
		delete(s.pending, id)
		close(ch)
	}
}

func (s *Stdio) logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.logger.Debug().Str("stream", "stderr").Msg(scanner.Text())
	}
}

// call sends one request and waits for its matching response, bounded
// by the configured timeout and the caller's context
func (s *Stdio) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("transport closed")
	}
	id := s.nextID
	s.nextID++
	ch := make(chan Response, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	req, err := NewRequest(id, method, params)
	if err != nil {
		s.forget(id)
		return nil, err
	}

	if err := s.sendRequest(req); err != nil {
		s.forget(id)
		return nil, err
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("transport closed while waiting for %s response", method)
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil

	case <-timer.C:
		s.forget(id)
		return nil, fmt.Errorf("timeout waiting for %s response after %s", method, s.timeout)

	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	}
}

func (s *Stdio) forget(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Stdio) sendRequest(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

func (s *Stdio) initialize(ctx context.Context) error {
	raw, err := s.call(ctx, MethodInitialize, defaultInitializeParams())
	if err != nil {
		return err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode initialize result: %w", err)
	}

	s.logger.Debug().
		Str("server_name", result.ServerInfo.Name).
		Str("server_version", result.ServerInfo.Version).
		Msg("initialize handshake complete")
	return nil
}

func (s *Stdio) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	raw, err := s.call(ctx, MethodListTools, map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var result ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tool list: %w", err)
	}

	tools := make([]mcp.Tool, 0, len(result.Tools))
	for _, spec := range result.Tools {
		tools = append(tools, spec.Tool())
	}
	return tools, nil
}

func (s *Stdio) Invoke(ctx context.Context, name string, args map[string]interface{}) types.Result {
	raw, err := s.call(ctx, MethodCallTool, CallParams{Name: name, Arguments: args})
	if err != nil {
		return types.Result{Tool: name, Err: err.Error()}
	}

	var result CallResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return types.Result{Tool: name, Err: fmt.Sprintf("failed to decode tool result: %v", err)}
	}

	text := result.Text()
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return types.Result{Tool: name, Err: text}
	}
	return types.Result{Tool: name, OK: true, Output: text}
}

// Close shuts the pipe and kills the subprocess. Idempotent.
func (s *Stdio) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if err := s.stdin.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close stdin: %w", err)
		}

		if s.cmd != nil && s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil {
				s.logger.Debug().Err(err).Msg("failed to kill MCP server process")
			}
			// Wait reaps the process; after a kill its error is expected
			if err := s.cmd.Wait(); err != nil {
				s.logger.Debug().Err(err).Msg("MCP server process exited")
			}
		}
	})
	return s.closeErr
}
