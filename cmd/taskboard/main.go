package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"taskboard/board"
	"taskboard/client"
	"taskboard/tui"
)

func main() {
	cfg, err := loadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The board owns the terminal, so logs only go to a file.
	logger := log.New()
	logger.SetOutput(io.Discard)
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	api := client.New(cfg.APIURL, client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	ctrl := board.New(api, board.WithLogger(logger))

	p := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running board: %v\n", err)
		os.Exit(1)
	}
}
