package site

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// ValidationError reports a structural problem in a rendered artifact.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("artifact %s: %s", e.Path, e.Reason)
}

// Patterns that never belong in generated code.
var bannedPatterns = []string{"</script>", "document.write", "eval("}

// ValidateArtifact runs the structural checks for an artifact class,
// picked by file extension. TypeScript artifacts need a top-level
// export, no banned patterns, and balanced braces; JSON artifacts must
// parse; everything else gets the brace check only.
func ValidateArtifact(outputPath, content string) error {
	switch path.Ext(outputPath) {
	case ".ts", ".tsx":
		return validateTypeScript(outputPath, content)
	case ".json":
		if !json.Valid([]byte(content)) {
			return &ValidationError{Path: outputPath, Reason: "invalid JSON"}
		}
		return nil
	default:
		if !balanced(content) {
			return &ValidationError{Path: outputPath, Reason: "unbalanced braces or parens"}
		}
		return nil
	}
}

func validateTypeScript(outputPath, content string) error {
	hasExport := strings.Contains(content, "export default") ||
		strings.Contains(content, "export const") ||
		strings.Contains(content, "export function")
	if !hasExport {
		return &ValidationError{Path: outputPath, Reason: "no top-level export"}
	}
	for _, banned := range bannedPatterns {
		if strings.Contains(content, banned) {
			return &ValidationError{Path: outputPath, Reason: fmt.Sprintf("contains banned pattern %q", banned)}
		}
	}
	if !balanced(content) {
		return &ValidationError{Path: outputPath, Reason: "unbalanced braces or parens"}
	}
	return nil
}

func balanced(content string) bool {
	return strings.Count(content, "{") == strings.Count(content, "}") &&
		strings.Count(content, "(") == strings.Count(content, ")")
}
