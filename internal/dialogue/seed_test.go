package dialogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/baseer-ai/baseer/internal/models"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeed(t *testing.T) {
	path := writeSeedFile(t, "user,model\nافتح الكاميرا,CAMERA حاضر\nكيف حالك؟,بخير الحمد لله\n")
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	turns := seed.Turns()
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[0].Text != "افتح الكاميرا" {
		t.Errorf("unexpected first turn %+v", turns[0])
	}
	if turns[1].Role != models.RoleModel || turns[1].Text != "CAMERA حاضر" {
		t.Errorf("unexpected second turn %+v", turns[1])
	}
}

func TestLoadSeed_MissingColumns(t *testing.T) {
	path := writeSeedFile(t, "prompt,reply\nhi,hello\n")
	if _, err := LoadSeed(path); err == nil {
		t.Fatal("expected error for missing user/model columns")
	}
}

func TestLoadSeed_EmptyFile(t *testing.T) {
	path := writeSeedFile(t, "")
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed failed on empty file: %v", err)
	}
	if seed.Len() != 0 {
		t.Errorf("expected empty seed, got %d turns", seed.Len())
	}
}

func TestLoadSeed_FileMissing(t *testing.T) {
	if _, err := LoadSeed(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
