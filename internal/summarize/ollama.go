package summarize

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CommandRunner executes an external command with the given stdin and returns
// its stdout. Injected so tests can fake the model binary.
type CommandRunner func(ctx context.Context, name string, args []string, stdin string) (string, error)

// Ollama invokes a local model through the ollama CLI. Availability is probed
// once per process; an unavailable binary or missing model disables the tier
// so the chain falls through to the extractive strategy.
type Ollama struct {
	model     string
	timeout   time.Duration
	maxPrompt int
	run       CommandRunner
	logger    *zap.Logger

	probeOnce sync.Once
	usable    bool
}

// NewOllama constructs the model tier. maxPrompt bounds how much source text
// is embedded in the prompt.
func NewOllama(model string, timeout time.Duration, maxPrompt int, logger *zap.Logger) *Ollama {
	return &Ollama{
		model:     model,
		timeout:   timeout,
		maxPrompt: maxPrompt,
		run:       execRunner,
		logger:    logger,
	}
}

// Name implements Strategy.
func (o *Ollama) Name() string { return "ollama" }

// Available reports whether the ollama binary responds and lists the model.
func (o *Ollama) Available(ctx context.Context) bool {
	o.probeOnce.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		out, err := o.run(probeCtx, "ollama", []string{"list"}, "")
		if err != nil {
			o.logger.Warn("ollama not available", zap.Error(err))
			return
		}
		if !strings.Contains(out, o.model) {
			o.logger.Warn("ollama model not installed", zap.String("model", o.model))
			return
		}
		o.logger.Info("ollama available", zap.String("model", o.model))
		o.usable = true
	})
	return o.usable
}

// Summarize implements Strategy. Any failure (binary missing, timeout, empty
// output after cleanup) is an error so the chain can fall through.
func (o *Ollama) Summarize(ctx context.Context, text string, sentenceCount int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if !o.Available(ctx) {
		return "", fmt.Errorf("ollama model %q unavailable", o.model)
	}

	if o.maxPrompt > 0 && len(text) > o.maxPrompt {
		text = text[:o.maxPrompt]
	}
	prompt := fmt.Sprintf(`Summarize the following text about an animated TV show and/or toy line in exactly %d sentences. Focus on the key facts about the show and toys. Use only the provided text - do not invent facts.

Text:
%s

Summary:`, sentenceCount, text)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.run(callCtx, "ollama", []string{"run", o.model}, prompt)
	if err != nil {
		return "", fmt.Errorf("ollama run: %w", err)
	}

	summary := cleanModelOutput(out)
	if summary == "" {
		return "", fmt.Errorf("ollama returned empty summary")
	}
	return summary, nil
}

// cleanModelOutput strips prompt-echo artifacts from model output.
func cleanModelOutput(out string) string {
	lines := strings.Split(out, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Summary:") || strings.HasPrefix(line, "Here") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func execRunner(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}
