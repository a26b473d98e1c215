package lang

func init() {
	Register(&LanguageSpec{
		Language:           Python,
		FileExtensions:     []string{".py"},
		FunctionNodeTypes:  []string{"function_definition"},
		CallNodeTypes:      []string{"call"},
		ImportNodeTypes:    []string{"import_statement", "import_from_statement"},
		DecoratorNodeTypes: []string{"decorator"},
		EnvAccessFunctions: []string{"os.getenv", "os.environ.get"},
	})
}
