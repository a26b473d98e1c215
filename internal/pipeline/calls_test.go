package pipeline

import (
	"reflect"
	"testing"
)

func TestCollectCalls(t *testing.T) {
	root, src := parsePython(t, `@app.route('/x')
def fn(a):
    first(a)
    value = second()
    first(a + 1)
    obj.method()
    deep.chain.call()
    return third(value)
`)
	def, decorated := findDef(t, root, src, "fn")
	got := collectCalls(def, decorated, src)
	// app.route comes from the decorator; duplicates collapse to first
	// appearance; deep attribute chains are unresolvable and dropped.
	want := []string{"app.route", "first", "second", "obj.method", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestCollectCallsStopsAtNestedDefs(t *testing.T) {
	root, src := parsePython(t, `def outer():
    top_call()

    @wrapper
    def inner():
        inner_call()

    return inner
`)
	def, _ := findDef(t, root, src, "outer")
	got := collectCalls(def, nil, src)
	if !reflect.DeepEqual(got, []string{"top_call"}) {
		t.Errorf("outer calls = %v", got)
	}

	innerDef, innerDecorated := findDef(t, root, src, "inner")
	gotInner := collectCalls(innerDef, innerDecorated, src)
	if !reflect.DeepEqual(gotInner, []string{"inner_call"}) {
		t.Errorf("inner calls = %v", gotInner)
	}
}

func TestCollectCallsEmptyBody(t *testing.T) {
	root, src := parsePython(t, "def quiet():\n    pass\n")
	def, _ := findDef(t, root, src, "quiet")
	if got := collectCalls(def, nil, src); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
}
