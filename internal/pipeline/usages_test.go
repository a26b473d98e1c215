package pipeline

import "testing"

func TestCollectRefs(t *testing.T) {
	root, src := parsePython(t, `@deco.wrap
def fn(a, b=default_val, *args, **kwargs):
    total = a + other
    obj.field = 1
    val = data["key"]
    for i in items:
        use(i)
    x, y = pair
    with open(p) as fh:
        fh.read()
    lam = lambda q: q + lam_free
    def inner(z):
        return inner_free
    return total
`)
	def, decorated := findDef(t, root, src, "fn")
	refs := collectRefs(def, decorated, src)

	wantPresent := []string{
		"deco",        // decorator attribute root
		"default_val", // default value expression
		"a",           // parameter read back in the body
		"other",
		"obj", // attribute root, even on a store target
		"data",
		"items",
		"use", "i",
		"pair",
		"open", "p",
		"fh", // bound by the with clause, read afterwards
		"q",  // lambda parameter read in the lambda body
		"lam_free",
		"inner_free", // nested definitions are included
		"total",
	}
	for _, name := range wantPresent {
		if !refs[name] {
			t.Errorf("missing ref %q", name)
		}
	}

	wantAbsent := []string{
		"fn",     // definition name
		"b",      // default parameter name
		"args",   // star parameter
		"kwargs", // double-star parameter
		"wrap",   // attribute side of the decorator
		"field",  // attribute side of a store
		"x", "y", // tuple unpack targets
		"z",     // nested definition parameter
		"inner", // nested definition name
	}
	for _, name := range wantAbsent {
		if refs[name] {
			t.Errorf("unexpected ref %q", name)
		}
	}
}

func TestCollectRefsImportInternals(t *testing.T) {
	root, src := parsePython(t, `def fn():
    import os
    from pkg import thing as alias
    return os.path
`)
	def, _ := findDef(t, root, src, "fn")
	refs := collectRefs(def, nil, src)

	if !refs["os"] {
		t.Error("os read not recorded")
	}
	for _, name := range []string{"pkg", "thing", "alias"} {
		if refs[name] {
			t.Errorf("import internals leaked: %q", name)
		}
	}
	if refs["fn"] {
		t.Error("own name recorded")
	}
}

func TestCollectRefsGlobalRead(t *testing.T) {
	root, src := parsePython(t, `def fn():
    global counter
    counter = counter + 1
`)
	def, _ := findDef(t, root, src, "fn")
	refs := collectRefs(def, nil, src)
	// The read on the right-hand side counts; the global declaration and
	// the assignment target add nothing on their own.
	if !refs["counter"] {
		t.Error("counter read not recorded")
	}
}

func TestRefsInSubtreeModule(t *testing.T) {
	root, src := parsePython(t, `def helper(x):
    return json.dumps(x)
`)
	refs := refsInSubtree(root, src)
	if !refs["json"] {
		t.Error("json not recorded")
	}
	if refs["dumps"] {
		t.Error("attribute side recorded")
	}
	if refs["helper"] {
		t.Error("definition name recorded")
	}
}
