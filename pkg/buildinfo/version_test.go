package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v9.9.9"

	if got := String(); !strings.HasPrefix(got, "version: v9.9.9\n") {
		t.Errorf("String() = %q", got)
	}
	if got := Get().Version; got != "v9.9.9" {
		t.Errorf("Get().Version = %q, want v9.9.9", got)
	}
	if got := Template(); !strings.Contains(got, "{{.Name}} version v9.9.9") {
		t.Errorf("Template() = %q", got)
	}
}
