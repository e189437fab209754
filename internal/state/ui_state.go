// Package state persists UI preferences and prompt history between runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/deskr/internal/logger"
)

const fileName = "ui-state.json"

// MaxHistory bounds the number of prompts kept on disk.
const MaxHistory = 200

// UIState holds persistent UI preferences that carry across sessions.
type UIState struct {
	ToolOutput ToolOutputState `json:"tool_output"`
	Prompts    []string        `json:"prompts"`
}

// ToolOutputState controls how tool calls appear in the transcript.
type ToolOutputState struct {
	Expanded bool `json:"expanded"`
}

// DefaultUIState returns collapsed tool output and an empty history.
func DefaultUIState() *UIState {
	return &UIState{}
}

// Load reads the UI state from dataDir/ui-state.json.
// Returns default state if the file doesn't exist or on error.
func Load(dataDir string) *UIState {
	path := filepath.Join(dataDir, fileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultUIState()
	}
	if err != nil {
		logger.Warn("Failed to read UI state file: %v", err)
		return DefaultUIState()
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("Failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}
	return &state
}

// Save writes the UI state to dataDir/ui-state.json, keeping only the most
// recent MaxHistory prompts.
func Save(dataDir string, state *UIState) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	out := *state
	if len(out.Prompts) > MaxHistory {
		out.Prompts = out.Prompts[len(out.Prompts)-MaxHistory:]
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	path := filepath.Join(dataDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}
