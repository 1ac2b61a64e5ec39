// Package session runs Claude CLI sessions for single pipeline steps.
//
// Each session spawns one subprocess in stream-json mode and tees its
// output: every raw line goes byte-identical to a per-invocation log file
// and, in the same order, through the stream parser to the live event
// sink. Exactly one subprocess is active at a time.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mazzeb/bmad-ralph-loop/internal/git"
	"github.com/mazzeb/bmad-ralph-loop/internal/stream"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"

	pkgexec "github.com/mazzeb/bmad-ralph-loop/internal/exec"
)

// scanBufferSize bounds a single stream-json line. Tool results can carry
// whole files, so lines run into the megabytes.
const scanBufferSize = 10 * 1024 * 1024

// Request describes one step session.
type Request struct {
	// Step is the step kind this session runs.
	Step models.StepKind
	// StoryKey is the story the step runs for.
	StoryKey string
	// Prompt is the full instruction payload. Opaque to the runner.
	Prompt string
	// ExtraPrompt is appended after a blank line when non-empty.
	ExtraPrompt string
	// LogFile is the per-invocation log path, created before any read.
	LogFile string
	// MaxTurns bounds the agent turns for this session.
	MaxTurns int
	// Model selects the model; empty uses the CLI default.
	Model string
}

// Runner executes Claude CLI sessions and the commit step.
type Runner struct {
	cfg  models.SessionConfig
	sink EventSink
	git  git.Runner
	cmd  pkgexec.CommandRunner

	// msgGen generates commit messages via the Anthropic API when
	// configured; nil falls back to the CLI and then the template.
	msgGen CommitMessageGenerator

	// claudeBin is the claude executable name; overridable for tests.
	claudeBin string
}

// NewRunner creates a session runner.
func NewRunner(cfg models.SessionConfig, sink EventSink, gitRunner git.Runner, cmdRunner pkgexec.CommandRunner, msgGen CommitMessageGenerator) *Runner {
	if sink == nil {
		sink = NopSink{}
	}
	return &Runner{
		cfg:       cfg,
		sink:      sink,
		git:       gitRunner,
		cmd:       cmdRunner,
		msgGen:    msgGen,
		claudeBin: "claude",
	}
}

// Run executes one step session and returns its structured outcome.
//
// The returned error covers setup failures only (bad log path, spawn
// failure); a session that ran and failed is reported through
// StepResult.Success, not the error.
func (r *Runner) Run(ctx context.Context, req Request) (models.StepResult, error) {
	result := models.StepResult{Kind: req.Step, StoryKey: req.StoryKey}

	prompt := req.Prompt
	if req.ExtraPrompt != "" {
		prompt = prompt + "\n\n" + req.ExtraPrompt
	}

	args := []string{
		"-p", prompt,
		"--verbose",
		"--max-turns", fmt.Sprintf("%d", req.MaxTurns),
		"--output-format", "stream-json",
		"--dangerously-skip-permissions",
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}

	// Open the log before reading any output so a crash cannot lose lines.
	logFile, err := os.OpenFile(req.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return result, fmt.Errorf("open session log: %w", err)
	}
	defer logFile.Close()
	logWriter := bufio.NewWriter(logFile)
	defer logWriter.Flush()

	runCtx := ctx
	var cancel context.CancelFunc
	if r.cfg.SessionTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.SessionTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.claudeBin, args...)
	cmd.Dir = r.cfg.ProjectDir

	// Merge stderr into stdout so diagnostics land in the same log in
	// arrival order.
	pr, pw, err := os.Pipe()
	if err != nil {
		return result, fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return result, fmt.Errorf("start %s: %w", r.claudeBin, err)
	}
	pw.Close()
	defer pr.Close()

	r.sink.SessionActive(true)
	defer r.sink.SessionActive(false)

	var resultEvent *models.ResultEvent

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	for scanner.Scan() {
		line := scanner.Text()

		logWriter.WriteString(line)
		logWriter.WriteByte('\n')
		logWriter.Flush()

		for _, ev := range stream.ParseLine(line) {
			r.sink.HandleEvent(ev)
			switch e := ev.(type) {
			case models.MarkerEvent:
				result.Markers = append(result.Markers, e)
			case models.ResultEvent:
				re := e
				resultEvent = &re
			}
		}
	}

	if readErr := scanner.Err(); readErr != nil {
		// The subprocess may be blocked writing into the full pipe. Kill
		// it and drain the remainder so Wait can return.
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		io.Copy(io.Discard, pr)
		cmd.Wait()
		r.sink.HandleEvent(models.TextEvent{
			Text: fmt.Sprintf("SESSION READ ERROR: %v. Terminated subprocess.", readErr),
		})
		result.Success = false
		return result, nil
	}

	waitErr := cmd.Wait()

	if resultEvent != nil {
		result.DurationMS = resultEvent.DurationMS
		result.NumTurns = resultEvent.NumTurns
		result.CostUSD = resultEvent.CostUSD
	}

	// Session timeout: the subprocess was killed by the deadline.
	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		r.sink.HandleEvent(models.TextEvent{
			Text: fmt.Sprintf("SESSION TIMEOUT: %s exceeded. Terminated subprocess.", r.cfg.SessionTimeout),
		})
		result.DurationMS = int(r.cfg.SessionTimeout / time.Millisecond)
		result.Success = false
		return result, nil
	}

	// Operator cancellation: surface it so the loop stops cleanly.
	if ctx.Err() != nil {
		result.Success = false
		return result, ctx.Err()
	}

	exitOK := waitErr == nil
	resultOK := resultEvent == nil || !resultEvent.IsError
	result.Success = exitOK && resultOK && !result.HasMarker(models.MarkerHalt)
	return result, nil
}
