package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// env isolates the XDG directories and returns the document path.
func env(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return filepath.Join(dir, "pedigree.json")
}

// execute runs one command line against file and returns its output.
func execute(t *testing.T, file string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &out
	root := c.RootCommand()
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--file", file}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, file string, args ...string) string {
	t.Helper()
	out, err := execute(t, file, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func readDoc(t *testing.T, file string) *pedigree.Pedigree {
	t.Helper()
	p, err := document.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewAndAdd(t *testing.T) {
	file := env(t)

	out := mustExecute(t, file, "new", "--name", "Ann", "--gender", "female", "--pattern", "autosomal_recessive")
	if !strings.Contains(out, "Created "+file) {
		t.Errorf("new output = %q", out)
	}
	p := readDoc(t, file)
	if p.Len() != 1 || p.ProbandID() != "III-1" || p.Pattern() != pedigree.AutosomalRecessive {
		t.Fatalf("after new: Len() = %d, proband %q, pattern %s", p.Len(), p.ProbandID(), p.Pattern())
	}

	out = mustExecute(t, file, "add", "parents", "III-1", "--first-name", "Bob", "--second-name", "Cat")
	if !strings.Contains(out, "created II-1, II-2") || !strings.Contains(out, "3 individuals") {
		t.Errorf("add parents output = %q", out)
	}
	mustExecute(t, file, "add", "sibling", "III-1", "--name", "Dan", "--gender", "male", "--affected")
	mustExecute(t, file, "add", "spouse", "III-1", "--name", "Eve", "--marriage", "divorced")
	mustExecute(t, file, "add", "twins", "III-1", "--type", "identical")
	mustExecute(t, file, "add", "loss", "III-1", "--termination")

	p = readDoc(t, file)
	if got := p.Len(); got != 8 {
		t.Errorf("Len() = %d, want 8", got)
	}
	bob, _ := p.Individual("II-1")
	if bob.Name != "Bob" || bob.Gender != pedigree.Male {
		t.Errorf("II-1 = %s %s, want Bob male", bob.Name, bob.Gender)
	}
	ann, _ := p.Individual("III-1")
	if v, ok := ann.Risks.Get(pedigree.RiskCarrier); !ok || math.Abs(v-18) > 1e-9 {
		t.Errorf("III-1 carrier risk = %v, %v; want 18 (2pq at f=0.01)", v, ok)
	}
	if len(p.ChildrenOf("III-1")) != 3 {
		t.Errorf("III-1 children = %d, want 3", len(p.ChildrenOf("III-1")))
	}
}

func TestNewRefusesExisting(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new")

	_, err := execute(t, file, "new")
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Errorf("second new error = %v, want %s", err, errors.ErrCodeInvalidOperation)
	}
	mustExecute(t, file, "new", "--force", "--name", "Zed")
	if ind, _ := readDoc(t, file).Individual("III-1"); ind.Name != "Zed" {
		t.Errorf("III-1 after --force = %q, want Zed", ind.Name)
	}
}

func TestRejectionLeavesFile(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new")
	before, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		code errors.Code
	}{
		{[]string{"add", "child", "III-1"}, errors.ErrCodeSpouseRequired},
		{[]string{"add", "sibling", "III-1"}, errors.ErrCodeParentsRequired},
		{[]string{"delete", "III-1"}, errors.ErrCodeProbandProtected},
		{[]string{"add", "spouse", "IV-7"}, errors.ErrCodeNotFound},
		{[]string{"set", "frequency", "2"}, errors.ErrCodeInvalidInput},
		{[]string{"set", "frequency", "lots"}, errors.ErrCodeInvalidInput},
		{[]string{"update", "III-1"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		_, err := execute(t, file, tt.args...)
		if errors.GetCode(err) != tt.code {
			t.Errorf("%s: error = %v, want %s", strings.Join(tt.args, " "), err, tt.code)
		}
	}

	after, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("rejected commands changed the document")
	}
}

func TestMissingDocument(t *testing.T) {
	file := env(t)
	_, err := execute(t, file, "risk")
	if !errors.Is(err, errors.ErrCodeNotFound) || !strings.Contains(err.Error(), "run 'pedigree new' first") {
		t.Errorf("risk on missing document error = %v", err)
	}
}

func TestUpdateAndProband(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new", "--name", "Ann")
	mustExecute(t, file, "add", "parents", "III-1")
	mustExecute(t, file, "update", "II-1", "--affected", "--conditions", "Huntington disease", "--deceased")
	mustExecute(t, file, "proband", "II-2")

	p := readDoc(t, file)
	father, _ := p.Individual("II-1")
	if !father.Affected || !father.Deceased || father.Conditions != "Huntington disease" {
		t.Errorf("II-1 = %+v", father)
	}
	if father.Name != "" {
		t.Errorf("II-1 name = %q, want untouched", father.Name)
	}
	if p.ProbandID() != "II-2" {
		t.Errorf("ProbandID() = %q, want II-2", p.ProbandID())
	}

	mustExecute(t, file, "delete", "III-1")
	if got := readDoc(t, file).Len(); got != 2 {
		t.Errorf("Len() after delete = %d, want 2", got)
	}
}

func TestApply(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new")

	batch := filepath.Join(filepath.Dir(file), "ops.json")
	const ops = `[
		{"kind": "add_spouse", "target": "III-1", "params": {"person": {"name": "Eve"}}},
		{"kind": "add_child", "target": "III-1", "params": {"person": {"name": "Kid"}}},
		{"kind": "set_pattern", "params": {"pattern": "x_linked_recessive"}}
	]`
	if err := os.WriteFile(batch, []byte(ops), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustExecute(t, file, "apply", batch)
	if !strings.Contains(out, "created III-2, IV-1") {
		t.Errorf("apply output = %q", out)
	}
	p := readDoc(t, file)
	if p.Len() != 3 || p.Pattern() != pedigree.XLinkedRecessive {
		t.Errorf("after apply: Len() = %d, pattern %s", p.Len(), p.Pattern())
	}

	mustExecute(t, file, "no-offspring", "III-1", "infertility")
	if eve, _ := readDoc(t, file).Individual("III-2"); eve.NoOffspring != pedigree.OffspringInfertility {
		t.Errorf("III-2 NoOffspring = %q, want infertility", eve.NoOffspring)
	}

	// A failing batch applies nothing.
	bad := `[{"kind": "add_child", "target": "III-1"}, {"kind": "delete", "target": "III-1"}]`
	if err := os.WriteFile(batch, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, file, "apply", batch); !errors.Is(err, errors.ErrCodeProbandProtected) {
		t.Errorf("bad batch error = %v, want %s", err, errors.ErrCodeProbandProtected)
	}
	if got := readDoc(t, file).Len(); got != 3 {
		t.Errorf("Len() after failed batch = %d, want 3", got)
	}
}

func TestViews(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new", "--name", "Ann", "--gender", "female")
	mustExecute(t, file, "add", "parents", "III-1", "--first-name", "Bob", "--first-affected")

	out := mustExecute(t, file, "report", "--date", "2024-05-01")
	for _, want := range []string{"GENETIC RISK ASSESSMENT REPORT", "Generated on: 2024-05-01", "Bob (II-1)", "Affected Risk: 50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, file, "risk", "--json")
	var risks map[string]document.Risks
	if err := json.Unmarshal([]byte(out), &risks); err != nil {
		t.Fatalf("risk --json: %v\n%s", err, out)
	}
	if v := risks["III-1"]["affected"]; v == nil || *v != 50 {
		t.Errorf("III-1 affected = %v, want 50", v)
	}

	out = mustExecute(t, file, "risk")
	for _, want := range []string{"Autosomal Dominant", "III-1 Ann", "Affected Risk", "50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("risk table missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, file, "layout")
	var l struct {
		Positions map[string]any `json:"positions"`
	}
	if err := json.Unmarshal([]byte(out), &l); err != nil {
		t.Fatalf("layout: %v\n%s", err, out)
	}
	if len(l.Positions) != 3 {
		t.Errorf("layout positions = %d, want 3", len(l.Positions))
	}

	out = mustExecute(t, file, "render", "dot")
	if !strings.HasPrefix(out, "graph pedigree {") {
		t.Errorf("render dot = %q", out)
	}

	dotFile := filepath.Join(filepath.Dir(file), "chart.dot")
	out = mustExecute(t, file, "render", "dot", "-o", dotFile)
	if !strings.Contains(out, dotFile) {
		t.Errorf("render -o output = %q", out)
	}
	if data, err := os.ReadFile(dotFile); err != nil || !bytes.HasPrefix(data, []byte("graph pedigree {")) {
		t.Errorf("chart.dot = %q, %v", data, err)
	}
}

func TestValidate(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new")
	mustExecute(t, file, "add", "parents", "III-1")

	out := mustExecute(t, file, "validate")
	if !strings.Contains(out, "is consistent") {
		t.Errorf("validate output = %q", out)
	}

	// Point the proband at a parent that does not exist.
	var doc map[string]any
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, raw := range doc["individuals"].([]any) {
		if ind := raw.(map[string]any); ind["id"] == "III-1" {
			ind["parentIds"] = []string{"II-1", "II-9"}
		}
	}
	data, _ = json.Marshal(doc)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err = execute(t, file, "validate")
	if !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("validate error = %v, want %s", err, errors.ErrCodeInvalidDocument)
	}
	if !strings.Contains(out, "III-1: parent II-9 does not exist") {
		t.Errorf("validate output = %q", out)
	}

	// Other commands treat the missing parent as absent.
	out, err = execute(t, file, "risk")
	if err != nil {
		t.Fatalf("risk on broken document: %v", err)
	}
	if !strings.Contains(out, "III-1") {
		t.Errorf("risk output = %q, want the proband listed", out)
	}
}

func TestStoreDocument(t *testing.T) {
	file := env(t)
	storeDir := filepath.Join(filepath.Dir(file), "docs")
	cfgPath := filepath.Join(filepath.Dir(file), "pedigree.toml")
	cfg := "[store]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(storeDir) + "\"\n\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	mustExecute(t, file, "--config", cfgPath, "--doc", "family", "new", "--name", "Ann")
	mustExecute(t, file, "--config", cfgPath, "--doc", "family", "add", "parents", "III-1")

	p := readDoc(t, filepath.Join(storeDir, "family.json"))
	if p.Len() != 3 {
		t.Errorf("stored Len() = %d, want 3", p.Len())
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("--doc wrote the --file document: %v", err)
	}

	if _, err := execute(t, file, "--config", cfgPath, "--doc", "../escape", "new"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad document ID error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestCacheCommands(t *testing.T) {
	file := env(t)
	mustExecute(t, file, "new")
	mustExecute(t, file, "risk")

	out := mustExecute(t, file, "cache", "path")
	dir := strings.TrimSpace(out)
	if filepath.Base(dir) != appName {
		t.Errorf("cache path = %q", dir)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) == 0 {
		t.Error("cache directory empty after risk")
	}

	out = mustExecute(t, file, "cache", "clear")
	if !strings.Contains(out, "Cleared the file cache") {
		t.Errorf("cache clear output = %q", out)
	}
	entries, _ = os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache directory has %d entries after clear", len(entries))
	}
}

func TestCompletion(t *testing.T) {
	file := env(t)
	out := mustExecute(t, file, "completion", "bash")
	if !strings.Contains(out, "pedigree") {
		t.Error("bash completion does not mention pedigree")
	}

	mustExecute(t, file, "new", "--name", "Ann")
	var buf bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &buf
	root := c.RootCommand()
	root.SetArgs([]string{"__complete", "--file", file, "proband", ""})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "III-1\tAnn") {
		t.Errorf("ID completion = %q", out)
	}
}
