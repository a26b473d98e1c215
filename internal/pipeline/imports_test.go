package pipeline

import (
	"reflect"
	"testing"

	"github.com/autodeployr/flask-analyzer/internal/descriptor"
)

func TestCollectImports(t *testing.T) {
	root, src := parsePython(t, `import os
import a.b.c
import numpy as np
from flask import Flask, jsonify as jf
from .models import User
from . import db
from pkg import *

def handler():
    import sqlite3
`)

	got := collectImports(root, src)
	want := []importEntry{
		{Def: descriptor.ImportDefinition{Module: "os", Alias: "os"}, Line: 1},
		{Def: descriptor.ImportDefinition{Module: "a.b.c", Alias: "a.b.c"}, Line: 2},
		{Def: descriptor.ImportDefinition{Module: "numpy", Alias: "np"}, Line: 3},
		{Def: descriptor.ImportDefinition{Module: "flask.Flask", Alias: "Flask"}, Line: 4},
		{Def: descriptor.ImportDefinition{Module: "flask.jsonify", Alias: "jf"}, Line: 4},
		{Def: descriptor.ImportDefinition{Module: "models.User", Alias: "User"}, Line: 5},
		{Def: descriptor.ImportDefinition{Module: "db", Alias: "db"}, Line: 6},
		{Def: descriptor.ImportDefinition{Module: "pkg.*", Alias: "*"}, Line: 7},
		{Def: descriptor.ImportDefinition{Module: "sqlite3", Alias: "sqlite3"}, Line: 10, Function: "handler"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestCollectImportsEmpty(t *testing.T) {
	root, src := parsePython(t, "x = 1\n")
	if got := collectImports(root, src); len(got) != 0 {
		t.Errorf("imports = %+v, want none", got)
	}
}
