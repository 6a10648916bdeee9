package build

// Set via -ldflags "-X github.com/gYonder/genai-shell/internal/build.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
