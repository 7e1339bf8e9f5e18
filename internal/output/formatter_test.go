package output

import (
	"bytes"
	"strings"
	"testing"
)

type rows struct{}

func (rows) Header() []string { return []string{"tag", "schritte"} }
func (rows) Rows() [][]string { return [][]string{{"2024-01-01", "100"}, {"2024-01-02", "2500"}} }

func TestWrite_TextTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatText, rows{}); err != nil {
		t.Fatalf("err=%v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "tag") || !strings.Contains(lines[2], "2500") {
		t.Fatalf("out=%q", buf.String())
	}
}

func TestWrite_JSONFallback(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatText, map[string]int{"a": 1}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(buf.String(), `"a": 1`) {
		t.Fatalf("out=%q", buf.String())
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Fatalf("expected error for yaml")
	}
}
