package pipeline

import (
	"strings"
	"testing"
)

func TestCatalogLastWriteWins(t *testing.T) {
	c := newCatalog()
	c.add(&functionRecord{Name: "helper", FilePath: "a.py", Source: "def helper():\n    return 1"})
	c.add(&functionRecord{Name: "helper", FilePath: "z.py", Source: "def helper():\n    return 2"})

	rec, ok := c.get("helper")
	if !ok {
		t.Fatal("helper missing")
	}
	if rec.FilePath != "z.py" {
		t.Errorf("kept %q, want the later file", rec.FilePath)
	}
}

func TestCatalogIgnoresAnonymous(t *testing.T) {
	c := newCatalog()
	c.add(nil)
	c.add(&functionRecord{Name: ""})
	if _, ok := c.get(""); ok {
		t.Error("empty name cataloged")
	}
}

func TestFunctionSourceCleanDefinition(t *testing.T) {
	root, src := parsePython(t, `x = 1


@app.route('/y')
def y():
    a = 2
    return a


z = 3
`)
	def, decorated := findDef(t, root, src, "y")
	got := functionSource(def, decorated, src)
	if !strings.HasPrefix(got, "@app.route('/y')") {
		t.Errorf("source start = %q", got)
	}
	if !strings.HasSuffix(got, "return a") {
		t.Errorf("source end = %q", got)
	}
	if strings.Contains(got, "z = 3") || strings.Contains(got, "x = 1") {
		t.Errorf("source leaked surrounding code: %q", got)
	}
}

func TestBlockEndByIndent(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		defRow int
		want   int
	}{
		{
			"stops at dedent",
			[]string{"def f():", "    a = 1", "    b = 2", "x = 3"},
			0, 3,
		},
		{
			"interior blank stays inside",
			[]string{"def f():", "    a = 1", "", "    b = 2", "x = 3"},
			0, 4,
		},
		{
			"trailing blanks stay inside",
			[]string{"def f():", "    a = 1", "", ""},
			0, 4,
		},
		{
			"immediate dedent keeps only the def line",
			[]string{"def f():", "x = 1"},
			0, 1,
		},
		{
			"nested def measured from its own indent",
			[]string{"def outer():", "    def inner():", "        a = 1", "    b = 2"},
			1, 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blockEndByIndent(tt.lines, tt.defRow); got != tt.want {
				t.Errorf("end = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefSignature(t *testing.T) {
	root, src := parsePython(t, "def cool(a, b=1):\n    pass\n")
	def, _ := findDef(t, root, src, "cool")
	if got := defSignature(def, src); got != "def cool():" {
		t.Errorf("signature = %q", got)
	}
}

func TestIndentWidth(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"def f():", 0},
		{"    a = 1", 4},
		{"\ta = 1", 1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := indentWidth(tt.line); got != tt.want {
			t.Errorf("indentWidth(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
