package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mazzeb/bmad-ralph-loop/internal/state"
)

var historyLimit int
var historySteps bool
var historyPurge time.Duration

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs and their step results",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().BoolVar(&historySteps, "steps", false, "Show per-step results for each run")
	historyCmd.Flags().DurationVar(&historyPurge, "purge", 0, "Delete runs older than this duration (e.g. 720h)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	db, err := state.OpenProject(projectDir)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer db.Close()

	if historyPurge > 0 {
		purged, err := db.PurgeOldRuns(historyPurge)
		if err != nil {
			return fmt.Errorf("purge run history: %w", err)
		}
		fmt.Printf("purged %d run(s) older than %s\n", purged, historyPurge)
	}

	runs, err := db.RecentRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("load run history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	for _, run := range runs {
		duration := ""
		if run.EndedAt != nil {
			duration = run.EndedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		bold.Printf("%s  %s", run.StartedAt.Local().Format("2006-01-02 15:04"), run.Status)
		fmt.Printf("  %d story(ies)", run.StoriesDone)
		if duration != "" {
			dim.Printf("  %s", duration)
		}
		fmt.Println()

		if !historySteps {
			continue
		}
		steps, err := db.RunSteps(run.ID)
		if err != nil {
			return fmt.Errorf("load steps for run %s: %w", run.ID, err)
		}
		for _, s := range steps {
			mark := color.GreenString("✓")
			if !s.Success {
				mark = color.RedString("✗")
			}
			fmt.Printf("  %s %-6s %s", mark, s.Step.Label(), s.StoryKey)
			if s.Round > 0 {
				dim.Printf("  r%d", s.Round)
			}
			if s.CostUSD != nil {
				dim.Printf("  $%.4f", *s.CostUSD)
			}
			fmt.Println()
		}
	}
	return nil
}
