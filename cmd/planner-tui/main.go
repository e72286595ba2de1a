package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stemsi/studyplan-backend/internal/config"
	"github.com/stemsi/studyplan-backend/internal/logger"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/tui"
)

func main() {
	cfg := config.Load()

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := logger.New(logFile, cfg.LogLevel, "json")
	log.Info().Msg("Starting study planner TUI")

	p := tea.NewProgram(
		tui.NewApp(planner.NewController(), log),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("TUI exited with error")
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
