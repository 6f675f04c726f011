package errors

import "sort"

// ErrorTemplate defines a registered error code.
type ErrorTemplate struct {
	Category Category
	Severity Severity
	Message  string
	Detail   string
}

var registry = map[string]ErrorTemplate{
	// Discovery (E100-E109)

	"E100": {
		Category: CategoryDiscovery,
		Severity: SeverityFatal,
		Message:  "Invalid route pattern",
		Detail:   "The discovery glob could not be parsed. Patterns are relative to the routes directory and support ** for any depth.",
	},
	"E101": {
		Category: CategoryDiscovery,
		Severity: SeverityWarning,
		Message:  "Unreadable route entry",
		Detail:   "A file or directory below the routes directory could not be read and was skipped.",
	},
	"E102": {
		Category: CategoryDiscovery,
		Severity: SeverityFatal,
		Message:  "Routes directory not found",
		Detail:   "The configured routes directory does not exist or is not a directory.",
	},

	// Parse (E110-E119)

	"E110": {
		Category: CategoryParse,
		Severity: SeverityWarning,
		Message:  "Empty route file",
		Detail:   "The route file is too short or exports no handlers. Its node dispatches to children only.",
	},
	"E111": {
		Category: CategoryParse,
		Severity: SeverityError,
		Message:  "Invalid handler syntax",
		Detail:   "An import statement is malformed or a handler body has no matching closing brace. The node was not generated.",
	},
	"E112": {
		Category: CategoryParse,
		Severity: SeverityFatal,
		Message:  "Current directory unavailable",
		Detail:   "The working directory used to report source paths could not be resolved.",
	},

	// Config (E120-E129)

	"E120": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "Config parse error",
		Detail:   "densky.json or densky.yaml contains invalid syntax.",
	},
	"E121": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "Config file not found",
		Detail:   "No densky.json or densky.yaml was found in the project or its parents.",
	},
	"E122": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range or inconsistent with another one.",
	},

	// Validation (E130-E139)

	"E130": {
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  "Duplicate route",
		Detail:   "Several files resolve to the same URL. The first one inserted answers, the others are unreachable.",
	},

	// Output (E140-E149)

	"E140": {
		Category: CategoryOutput,
		Severity: SeverityFatal,
		Message:  "Artifact write failed",
		Detail:   "A generated dispatcher could not be written to the output directory.",
	},
	"E141": {
		Category: CategoryOutput,
		Severity: SeverityFatal,
		Message:  "Artifact upload failed",
		Detail:   "A generated dispatcher could not be uploaded to the configured bucket.",
	},

	// CLI (E150-E159)

	"E150": {
		Category: CategoryCLI,
		Severity: SeverityFatal,
		Message:  "Missing project path",
		Detail:   "densky needs the path of the project to compile as its first argument.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
