package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/risk"
)

func browseFixture(t *testing.T) *pedigree.Pedigree {
	t.Helper()
	p := pedigree.New()
	if _, err := p.AddProband(pedigree.Person{Name: "Ann", Gender: pedigree.Female}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddParents("III-1", pedigree.Person{Name: "Bob", Gender: pedigree.Male, Affected: true}, pedigree.Person{Name: "Cat"}, pedigree.Married); err != nil {
		t.Fatal(err)
	}
	risk.Apply(p, risk.ComputeAll(p))
	return p
}

func press(m tea.Model, keys ...tea.KeyMsg) BrowseModel {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m.(BrowseModel)
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestBrowseNavigation(t *testing.T) {
	m := NewBrowseModel(browseFixture(t))

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want string
	}{
		{"start", nil, "II-1"},
		{"up at top", []tea.KeyMsg{keyUp}, "II-1"},
		{"down", []tea.KeyMsg{keyDown}, "II-2"},
		{"down past end", []tea.KeyMsg{keyDown, keyDown, keyDown}, "III-1"},
		{"spouse", []tea.KeyMsg{keyEnter}, "II-2"},
		{"child", []tea.KeyMsg{keyRune('c')}, "III-1"},
		{"parent", []tea.KeyMsg{keyDown, keyDown, keyRune('p')}, "II-1"},
		{"no spouse", []tea.KeyMsg{keyDown, keyDown, keyEnter}, "III-1"},
	}
	for _, tt := range tests {
		got := press(m, tt.keys...)
		ind, ok := got.Selected()
		if !ok || ind.ID != tt.want {
			t.Errorf("%s: selected %v, want %s", tt.name, ind, tt.want)
		}
	}
}

func TestBrowseQuit(t *testing.T) {
	m := NewBrowseModel(browseFixture(t))
	for _, k := range []tea.KeyMsg{keyRune('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		if _, cmd := m.Update(k); cmd == nil {
			t.Errorf("Update(%s) returned no command, want tea.Quit", k)
		}
	}
}

func TestBrowseScrolls(t *testing.T) {
	m := NewBrowseModel(browseFixture(t))
	got, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 1})
	bm := press(got, keyDown, keyDown)
	if bm.Height != 5 {
		t.Errorf("Height = %d, want minimum 5", bm.Height)
	}
	if bm.Offset != 0 {
		t.Errorf("Offset = %d, want 0 while the cursor fits", bm.Offset)
	}

	bm.Height = 1
	bm = press(bm, keyUp)
	if bm.Offset != bm.Cursor {
		t.Errorf("Offset = %d, want cursor %d", bm.Offset, bm.Cursor)
	}
}

func TestBrowseView(t *testing.T) {
	m := press(NewBrowseModel(browseFixture(t)), keyDown, keyDown)
	view := m.View()
	for _, want := range []string{"Autosomal Dominant", "III-1 Ann (proband)", "Parents", "II-1, II-2", "Affected Risk", "50.0%", "[3/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	empty := NewBrowseModel(pedigree.New()).View()
	if !strings.Contains(empty, "(empty)") {
		t.Errorf("empty View() = %q", empty)
	}
}
