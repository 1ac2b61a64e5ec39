package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a sprint status snapshot",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	statusPath := filepath.Join(projectDir, sprint.StatusFile)
	status, err := sprint.Load(statusPath)
	if err != nil {
		return fmt.Errorf("no sprint status at %s; run this from a BMAD project root", statusPath)
	}

	stats := status.Stats()
	bold := color.New(color.Bold)
	bold.Printf("Sprint: %d/%d epics done, %d/%d stories done\n\n",
		stats.DoneEpics, stats.TotalEpics, stats.DoneStories, stats.TotalStories)

	if key, phase, ok := status.NextActionable(); ok {
		color.New(color.FgYellow).Printf("next up: %s (%s)\n", key, phase)
	} else {
		color.New(color.FgGreen).Println("no actionable stories; sprint complete")
	}

	done := status.DoneStories()
	if len(done) > 0 {
		// DoneStories is newest-first; print oldest-first for reading order.
		fmt.Println("\ncompleted:")
		for i := len(done) - 1; i >= 0; i-- {
			color.New(color.FgGreen).Printf("  ✓ %s\n", done[i])
		}
	}
	return nil
}
