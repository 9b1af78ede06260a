// Command ask runs the interactive analyst console against a running
// signalbot API server.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"signalbot/tui"
)

func main() {
	_ = godotenv.Load()

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("SIGNALBOT_API_URL"); v != "" {
		defaultURL = v
	}
	apiURL := flag.String("api", defaultURL, "base URL of the signalbot API server")
	flag.Parse()

	program := tea.NewProgram(tui.NewModel(*apiURL))
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
