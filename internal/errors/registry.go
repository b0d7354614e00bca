package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E001-E099)
	// ============================================

	"E001": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No docsmith.json was found in the project directory or any parent directory.",
		Suggestion: "Run docsmith from the project root, or create a docsmith.json file.",
		DocURL:     "https://docsmith.dev/docs/errors/E001",
	},
	"E002": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "docsmith.json exists but could not be parsed as JSON.",
		Suggestion: "Check docsmith.json for syntax errors such as trailing commas.",
		DocURL:     "https://docsmith.dev/docs/errors/E002",
	},
	"E003": {
		Category:   CategoryConfig,
		Message:    "Invalid locale identifier",
		Detail:     "The configured locale is not a valid BCP 47 language tag.",
		Suggestion: `Use a tag like "en", "de", or "pt-BR".`,
		DocURL:     "https://docsmith.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A DOCSMITH_* environment variable could not be parsed.",
		DocURL:   "https://docsmith.dev/docs/errors/E004",
	},

	// ============================================
	// Build Errors (E101-E199)
	// ============================================

	"E101": {
		Category:   CategoryBuild,
		Message:    "Build command failed",
		Detail:     "The external build command exited with a non-zero status.",
		Suggestion: "Check the build output above for the underlying error.",
		DocURL:     "https://docsmith.dev/docs/errors/E101",
	},
	"E102": {
		Category:   CategoryBuild,
		Message:    "Build command not found",
		Detail:     "The configured build command is not installed or not in PATH.",
		Suggestion: "Install the build tool, or set build.command in docsmith.json.",
		DocURL:     "https://docsmith.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryBuild,
		Message:  "Output directory missing after build",
		Detail:   "The build command succeeded but did not produce the configured output directory.",
		DocURL:   "https://docsmith.dev/docs/errors/E103",
	},

	// ============================================
	// Serve Errors (E201-E299)
	// ============================================

	"E201": {
		Category:   CategoryServe,
		Message:    "Cannot resolve bind address",
		Detail:     "The host:port string did not resolve to any network address.",
		Suggestion: "Check the --hostname and --port flags.",
		DocURL:     "https://docsmith.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryServe,
		Message:  "Server failed while serving",
		Detail:   "The HTTP listener returned an unrecoverable error.",
		DocURL:   "https://docsmith.dev/docs/errors/E202",
	},
	"E203": {
		Category: CategoryServe,
		Message:  "Metrics listener failed",
		DocURL:   "https://docsmith.dev/docs/errors/E203",
	},

	// ============================================
	// Watch Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryWatch,
		Message:  "Cannot watch source directory",
		Detail:   "The filesystem watcher could not be attached to the source directory.",
		DocURL:   "https://docsmith.dev/docs/errors/E301",
	},

	// ============================================
	// Deploy Errors (E401-E499)
	// ============================================

	"E401": {
		Category:   CategoryDeploy,
		Message:    "Missing deploy credentials",
		Detail:     "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set to deploy.",
		Suggestion: "Export the AWS credentials before running docsmith deploy.",
		DocURL:     "https://docsmith.dev/docs/errors/E401",
	},
	"E402": {
		Category: CategoryDeploy,
		Message:  "Upload failed",
		Detail:   "An object could not be uploaded to the deploy bucket.",
		DocURL:   "https://docsmith.dev/docs/errors/E402",
	},
	"E403": {
		Category:   CategoryDeploy,
		Message:    "Nothing to deploy",
		Detail:     "The output directory does not exist or is empty.",
		Suggestion: "Run docsmith build first.",
		DocURL:     "https://docsmith.dev/docs/errors/E403",
	},
}
