package textgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
)

const (
	topK            = 40
	maxShrinkCycles = 4
)

// Subprocess runs a generation script once per attempt:
//
//	<python> <script> <context> --length N --top_k 40 --model_name M
type Subprocess struct {
	python string
	script string
	model  string

	// command is swapped in tests
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewSubprocess(python, script, model string) *Subprocess {
	return &Subprocess{
		python:  python,
		script:  script,
		model:   model,
		command: exec.CommandContext,
	}
}

// Generate retries with a shorter context whenever the script exits
// non-zero, which is how out-of-memory failures surface.
func (s *Subprocess) Generate(ctx context.Context, context string, length int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxShrinkCycles; attempt++ {
		if attempt > 0 {
			context = shrink(context)
			slog.Info("text generation failed; retrying with smaller context",
				"attempt", attempt, "context_len", len(context), "error", lastErr)
		}

		cmd := s.command(ctx, s.python, s.script, context,
			"--length", strconv.Itoa(length),
			"--top_k", strconv.Itoa(topK),
			"--model_name", s.model,
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err == nil {
			return clean(string(out)), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run generation script: %w", err)
		}
		lastErr = fmt.Errorf("exit %d: %s", exitErr.ExitCode(), bytes.TrimSpace(stderr.Bytes()))
	}
	return "", fmt.Errorf("%w: %v", ErrGeneration, lastErr)
}
