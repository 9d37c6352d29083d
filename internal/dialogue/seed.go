// Package dialogue loads the seed dialogue prefix used to steer model style.
//
// The seed is a fixed set of example user/model turn pairs read from a CSV
// file once at startup. It is immutable process-wide configuration: handlers
// receive it by reference and must never mutate it.
package dialogue

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/baseer-ai/baseer/internal/models"
)

// Seed holds the immutable dialogue prefix.
type Seed struct {
	turns []models.DialogueTurn
}

// LoadSeed reads example turns from a CSV file with a header row and columns
// "user" and "model". Each row contributes one user turn followed by one
// model turn, preserving file order.
func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed dialogue file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed dialogue CSV: %w", err)
	}
	if len(records) == 0 {
		slog.Warn("dialogue.LoadSeed: seed file is empty", "path", path)
		return &Seed{}, nil
	}

	header := records[0]
	userCol, modelCol := -1, -1
	for i, name := range header {
		switch name {
		case "user":
			userCol = i
		case "model":
			modelCol = i
		}
	}
	if userCol < 0 || modelCol < 0 {
		return nil, fmt.Errorf("seed dialogue CSV missing required columns user/model, got %v", header)
	}

	var turns []models.DialogueTurn
	for _, rec := range records[1:] {
		if userCol >= len(rec) || modelCol >= len(rec) {
			continue
		}
		turns = append(turns,
			models.DialogueTurn{Role: models.RoleUser, Text: rec[userCol]},
			models.DialogueTurn{Role: models.RoleModel, Text: rec[modelCol]},
		)
	}
	slog.Info("dialogue.LoadSeed: seed dialogue loaded", "path", path, "turns", len(turns))
	return &Seed{turns: turns}, nil
}

// EmptySeed returns a seed with no turns, for deployments and tests that run
// without a steering prefix.
func EmptySeed() *Seed {
	return &Seed{}
}

// SeedFromTurns builds a seed from explicit turns, copying the slice so the
// caller cannot mutate it afterwards.
func SeedFromTurns(turns []models.DialogueTurn) *Seed {
	return &Seed{turns: append([]models.DialogueTurn(nil), turns...)}
}

// Turns returns the seed turns. Callers must treat the slice as read-only.
func (s *Seed) Turns() []models.DialogueTurn {
	return s.turns
}

// Len reports the number of seed turns.
func (s *Seed) Len() int {
	return len(s.turns)
}
