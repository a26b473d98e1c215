package main

import (
	"fmt"
	"os"

	"github.com/autodeployr/flask-analyzer/internal/lang"
	"github.com/autodeployr/flask-analyzer/internal/parser"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func dump(label string, source []byte) {
	fmt.Printf("=== %s ===\n", label)
	tree, err := parser.Parse(lang.Python, source)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	printAST(tree.RootNode(), source, 0)
	tree.Close()
}

func main() {
	if len(os.Args) > 1 {
		for _, path := range os.Args[1:] {
			source, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				os.Exit(1)
			}
			dump(path, source)
		}
		return
	}

	// No args: dump the node shapes the extraction passes care about.
	dump("DECORATED ROUTE", []byte("@app.route('/api', methods=['GET', 'POST'])\ndef handler():\n    pass\n"))
	dump("IMPORT FORMS", []byte("import os\nimport numpy as np\nfrom flask import Flask, jsonify\nfrom pkg import *\n"))
	dump("ENV ACCESS", []byte("import os\ntoken = os.getenv('TOKEN')\nurl = os.environ['URL']\ndebug = os.environ.get('DEBUG')\n"))
}
