package parser

import (
	"regexp"
	"strings"

	"github.com/densky-dev/densky/pkg/routepath"
)

// importRe finds import statements at the start of a line. Dynamic
// import(...) calls and identifiers such as "important" never match.
var importRe = regexp.MustCompile(`(?m)^[ \t]*import[\s{*"']`)

// Import is one rewritten import statement.
type Import struct {
	// Clause is the binding part ("{ a, b }", "x", "* as ns"); empty for
	// side-effect imports.
	Clause string

	// Path is the module specifier as seen from the output file.
	Path string

	// Original is the module specifier as written in the route file.
	Original string
}

// Statement renders the import, terminated by a semicolon.
func (i Import) Statement() string {
	if i.Clause == "" {
		return `import "` + i.Path + `";`
	}
	return "import " + i.Clause + ` from "` + i.Path + `";`
}

// ResolveImport rewrites a module specifier written in filePath so it
// resolves identically from outputPath.
//
// Relative specifiers are resolved against the source directory and then
// re-relativized against the output directory; absolute specifiers are
// only re-relativized; bare module names pass through unchanged.
func ResolveImport(specifier, filePath, outputPath string) (string, bool) {
	if specifier == "" {
		return specifier, true
	}

	var absolute string
	switch specifier[0] {
	case '.':
		absolute = routepath.JoinPaths(specifier, routepath.ParentPath(routepath.ToSlash(filePath)))
	case '/':
		absolute = specifier
	default:
		return specifier, true
	}

	return routepath.RelativePath(absolute, routepath.ParentPath(routepath.ToSlash(outputPath)))
}

// extractImports removes every import statement from content and returns
// them rewritten for outputPath together with the remaining content.
func extractImports(content, filePath, outputPath, relPath string) ([]Import, string, error) {
	var (
		imports []Import
		rest    strings.Builder
		pos     int
	)

	for _, loc := range importRe.FindAllStringIndex(content, -1) {
		if loc[0] < pos {
			continue
		}

		kwStart := loc[0] + strings.Index(content[loc[0]:loc[1]], "import")
		kwEnd := kwStart + len("import")
		tail := content[kwEnd:]

		quote := strings.IndexAny(tail, `"'`)
		if quote == -1 {
			return nil, "", syntaxError(relPath, "Malformed import. Missing module specifier.")
		}

		clause := strings.TrimSpace(tail[:quote])
		if clause != "" {
			trimmed := strings.TrimSuffix(clause, "from")
			if trimmed == clause || (trimmed != "" && !isClauseBoundary(trimmed[len(trimmed)-1])) {
				return nil, "", syntaxError(relPath, "Malformed import. Missing 'from' keyword")
			}
			clause = strings.TrimSpace(trimmed)
		}

		closing := strings.IndexByte(tail[quote+1:], tail[quote])
		if closing == -1 {
			return nil, "", syntaxError(relPath, "Malformed import. Missing closing quote.")
		}

		original := tail[quote+1 : quote+1+closing]
		resolved, ok := ResolveImport(original, filePath, outputPath)
		if !ok {
			return nil, "", syntaxError(relPath, "Cannot resolve import \""+original+"\" from the output directory")
		}

		end := kwEnd + quote + 1 + closing + 1
		if end < len(content) && content[end] == ';' {
			end++
		}

		rest.WriteString(content[pos:kwStart])
		pos = end

		imports = append(imports, Import{Clause: clause, Path: resolved, Original: original})
	}

	rest.WriteString(content[pos:])
	return imports, rest.String(), nil
}

func isClauseBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '}'
}
