package helper

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateUUID()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("invalid uuid %q: %v", a, err)
	}
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]int{"crispr": 2})
	if !strings.Contains(buf.String(), "\"crispr\": 2") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWriteTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.txt")
	if err := WriteTextFile(path, "Short summary."); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "Short summary." {
		t.Fatalf("got %q, %v", data, err)
	}
}
