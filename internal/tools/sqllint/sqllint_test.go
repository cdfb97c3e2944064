package sqllint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintFlagsUnmarkedQuery(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QBad = `select 1;`\n\nconst Label = \"Generate Stencil\"\n")

	vs, err := Lint(dir)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 1 || vs[0].Name != "QBad" || vs[0].Line != 3 {
		t.Fatalf("violations = %v", vs)
	}
}

func TestLintFlagsDuplicateMarker(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 7b65fadd-68d1-4d04-bcab-34939570861d"
	writeGo(t, dir, "a.go", "package q\n\nconst QA = `"+marker+"\nselect 1;`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QB = `"+marker+"\nselect 2;`\n")

	vs, err := Lint(dir)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 1 || !strings.Contains(vs[0].Message, "already used") {
		t.Fatalf("violations = %v", vs)
	}
}

func TestRepositoryQueriesAreMarked(t *testing.T) {
	vs, err := Lint(filepath.Join("..", "..", "sqlinline"))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	for _, v := range vs {
		t.Errorf("%s", v)
	}
}
