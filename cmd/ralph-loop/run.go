package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mazzeb/bmad-ralph-loop/internal/api"
	"github.com/mazzeb/bmad-ralph-loop/internal/config"
	pkgexec "github.com/mazzeb/bmad-ralph-loop/internal/exec"
	"github.com/mazzeb/bmad-ralph-loop/internal/git"
	"github.com/mazzeb/bmad-ralph-loop/internal/orchestrator"
	"github.com/mazzeb/bmad-ralph-loop/internal/session"
	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/internal/state"
	"github.com/mazzeb/bmad-ralph-loop/internal/tui"
	"github.com/mazzeb/bmad-ralph-loop/internal/watch"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

var (
	runMaxStories      int
	runMaxTurnsCS      int
	runMaxTurnsDS      int
	runMaxTurnsCR      int
	runMaxReviewRounds int
	runDevModel        string
	runReviewModel     string
	runSessionTimeout  time.Duration
	runDryRun          bool
	runShowThinking    bool
	runHeadless        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the story loop in the current project",
	Long: `Run the story loop in the current BMAD project.

Each iteration picks the highest-priority actionable story from the
sprint status file (in-progress > review > ready-for-dev > backlog),
runs the create-story, dev-story, and code-review agent sessions it
still needs, and commits the result. The loop stops when no actionable
story remains, the story budget is spent, or a step fails.

A run killed at any point is safe to restart: the next run resumes the
interrupted story at the step its sprint status implies, and commits
any finished story the crash left uncommitted.

The exit code is 0 only when at least one story was fully committed.`,
	Args: cobra.NoArgs,
	RunE: runLoop,
}

func init() {
	runCmd.Flags().IntVar(&runMaxStories, "max-stories", 0, "Maximum stories to process this run")
	runCmd.Flags().IntVar(&runMaxTurnsCS, "max-turns-cs", 0, "Turn budget for create-story sessions")
	runCmd.Flags().IntVar(&runMaxTurnsDS, "max-turns-ds", 0, "Turn budget for dev-story sessions")
	runCmd.Flags().IntVar(&runMaxTurnsCR, "max-turns-cr", 0, "Turn budget for code-review sessions")
	runCmd.Flags().IntVar(&runMaxReviewRounds, "max-review-rounds", 0, "Dev/review rounds before giving up on a story")
	runCmd.Flags().StringVar(&runDevModel, "dev-model", "", "Model for create-story and dev-story sessions")
	runCmd.Flags().StringVar(&runReviewModel, "review-model", "", "Model for code-review sessions")
	runCmd.Flags().DurationVar(&runSessionTimeout, "session-timeout", 0, "Per-session timeout (0 uses the configured default)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report what would run without spawning sessions")
	runCmd.Flags().BoolVar(&runShowThinking, "show-thinking", false, "Show agent thinking in the activity log")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Plain line output instead of the dashboard")
}

// runDeps bundles the wiring shared by both UI modes.
type runDeps struct {
	cfg    models.SessionConfig
	git    git.Runner
	cmd    pkgexec.CommandRunner
	msgGen session.CommitMessageGenerator
	rec    orchestrator.Recorder
	logger *orchestrator.DebugLogger
}

func runLoop(cmd *cobra.Command, args []string) error {
	if err := CheckClaudeCLI(); err != nil {
		return err
	}

	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	fileCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; using defaults\n", err)
		fileCfg = config.Default()
	}

	sc := fileCfg.SessionConfig(projectDir)
	applyFlagOverrides(cmd, &sc)

	statusPath := filepath.Join(projectDir, sprint.StatusFile)
	if _, err := os.Stat(statusPath); err != nil {
		return fmt.Errorf("no sprint status at %s; run this from a BMAD project root", statusPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := orchestrator.NewDebugLoggerForProject(projectDir)
	defer logger.Close()

	gitRunner := git.NewRunner(projectDir)

	deps := runDeps{
		cfg:    sc,
		git:    gitRunner,
		cmd:    pkgexec.NewRunner(),
		msgGen: buildCommitWriter(fileCfg, gitRunner, logger),
		rec:    orchestrator.NopRecorder{},
		logger: logger,
	}

	if db, err := state.OpenProject(projectDir); err != nil {
		logger.Log("run history unavailable: %v", err)
	} else {
		defer db.Close()
		deps.rec = db
	}

	if runHeadless {
		return runHeadlessMode(ctx, deps)
	}
	return runWithDashboard(ctx, deps)
}

// applyFlagOverrides lets explicit flags win over config file values.
func applyFlagOverrides(cmd *cobra.Command, sc *models.SessionConfig) {
	if cmd.Flags().Changed("max-stories") {
		sc.MaxStories = runMaxStories
	}
	if cmd.Flags().Changed("max-turns-cs") {
		sc.MaxTurnsCS = runMaxTurnsCS
	}
	if cmd.Flags().Changed("max-turns-ds") {
		sc.MaxTurnsDS = runMaxTurnsDS
	}
	if cmd.Flags().Changed("max-turns-cr") {
		sc.MaxTurnsCR = runMaxTurnsCR
	}
	if cmd.Flags().Changed("max-review-rounds") {
		sc.MaxReviewRounds = runMaxReviewRounds
	}
	if cmd.Flags().Changed("dev-model") {
		sc.DevModel = runDevModel
	}
	if cmd.Flags().Changed("review-model") {
		sc.ReviewModel = runReviewModel
	}
	if cmd.Flags().Changed("session-timeout") {
		sc.SessionTimeout = runSessionTimeout
	}
	if runDryRun {
		sc.DryRun = true
	}
	if runShowThinking {
		sc.ShowThinking = true
	}
}

// buildCommitWriter wires the API-backed commit message generator when a
// key or Bedrock is configured. Nil is fine: the session layer falls back
// to the Claude CLI and then a templated message.
func buildCommitWriter(fileCfg *config.Config, gitRunner git.Runner, logger *orchestrator.DebugLogger) session.CommitMessageGenerator {
	key, keyErr := config.GetAPIKey(fileCfg)
	if keyErr != nil && !fileCfg.Bedrock.Enabled {
		return nil
	}

	client, err := api.NewClient(api.ClientConfig{
		APIKey:        key,
		UseAWSBedrock: fileCfg.Bedrock.Enabled,
		AWSRegion:     fileCfg.Bedrock.Region,
		AWSProfile:    fileCfg.Bedrock.Profile,
	})
	if err != nil {
		logger.Log("api client unavailable, commit messages fall back to CLI: %v", err)
		return nil
	}
	return api.NewCommitWriter(client, gitRunner)
}

// executeRun assembles the orchestrator around a UI and runs it.
func executeRun(ctx context.Context, deps runDeps, ui orchestrator.UI) (int, error) {
	sessions := session.NewRunner(deps.cfg, ui, deps.git, deps.cmd, deps.msgGen)

	orch := orchestrator.New(orchestrator.Options{
		Config:   deps.cfg,
		Sessions: sessions,
		Git:      deps.git,
		UI:       ui,
		Recorder: deps.rec,
		Logger:   deps.logger,
	})

	// Refresh the header stats when an agent rewrites the status file
	// mid-session; the loop itself only reloads between sessions.
	statusPath := filepath.Join(deps.cfg.ProjectDir, sprint.StatusFile)
	watcher, err := watch.NewStatusWatcher(ctx, statusPath, func() {
		if status, err := sprint.Load(statusPath); err == nil {
			ui.UpdateSprintStats(status.Stats())
		}
	})
	if err != nil {
		deps.logger.Log("status watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	return orch.Run(ctx)
}

func runHeadlessMode(ctx context.Context, deps runDeps) error {
	ui := tui.NewPrinter(os.Stdout, deps.cfg.ShowThinking)
	stories, err := executeRun(ctx, deps, ui)
	if err != nil {
		return err
	}
	return exitStatus(stories, deps.cfg.DryRun)
}

type runOutcome struct {
	stories int
	err     error
}

func runWithDashboard(ctx context.Context, deps runDeps) error {
	// Stray log output corrupts the alt-screen display.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program, _ := tui.NewProgram(deps.cfg.ShowThinking)
	ui := tui.NewAdapter(program)

	orchDone := make(chan runOutcome, 1)
	go func() {
		stories, err := executeRun(ctx, deps, ui)
		orchDone <- runOutcome{stories: stories, err: err}
	}()

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	select {
	case res := <-orchDone:
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			program.Send(tui.DoneMsg{Summary: "Run failed: " + res.err.Error()})
		}
		// Leave the dashboard up so the result can be read.
		<-tuiDone
		if res.err != nil {
			return res.err
		}
		return exitStatus(res.stories, deps.cfg.DryRun)

	case err := <-tuiDone:
		// Operator quit the dashboard; stop the loop and wait for it.
		cancel()
		res := <-orchDone
		if err != nil {
			return err
		}
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			return res.err
		}
		return exitStatus(res.stories, deps.cfg.DryRun)
	}
}

// exitStatus maps the run outcome to the process exit: success only
// when at least one story was fully committed.
func exitStatus(stories int, dryRun bool) error {
	if dryRun || stories > 0 {
		return nil
	}
	return errors.New("no stories were committed")
}
