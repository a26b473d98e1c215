package descriptor

import "encoding/json"

// ImportDefinition is a single import binding declared in a source file.
// Module is the dotted module path as written ("flask", "app.models.user").
// Alias is the local name the binding introduces: the asname when one is
// given, otherwise the imported name itself.
type ImportDefinition struct {
	Module string `json:"module"`
	Alias  string `json:"alias"`
}

// ServerlessFunction is one Flask route extracted from an application,
// packaged with the source, imports, dependency functions and environment
// variables it needs to run standalone. Descriptors are immutable once
// assembled; slice and map fields are always non-nil so the serialized
// form never contains null.
type ServerlessFunction struct {
	Name              string             `json:"name"`
	Path              string             `json:"path"`
	Methods           []string           `json:"methods"`
	Source            string             `json:"source"`
	AppName           string             `json:"app_name"`
	Dependencies      []string           `json:"dependencies"`
	DependencySources map[string]string  `json:"dependency_sources"`
	Imports           []ImportDefinition `json:"imports"`
	EnvVars           []string           `json:"env_vars"`
	FilePath          string             `json:"file_path"`
	LineNumber        int                `json:"line_number"`
	RequiresDB        bool               `json:"requires_db"`
}

// AnalysisResult is the output of one analyzer run over an application.
type AnalysisResult struct {
	Language  string                `json:"language"`
	Framework string                `json:"framework"`
	AppName   string                `json:"app_name"`
	Functions []*ServerlessFunction `json:"functions"`
}

// JSON renders the result as indented JSON, the form written to output
// files and printed by the CLI.
func (r *AnalysisResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ErrorJSON renders an analysis failure in the same shape consumers read
// results from: a single object with an "error" key.
func ErrorJSON(err error) []byte {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return b
}
