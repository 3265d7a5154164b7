package cli

import "os"

// ANSI color codes for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// NoColor disables FormatStatus coloring. It starts set when NO_COLOR is.
var NoColor = os.Getenv("NO_COLOR") != ""

// FormatStatus returns a colored status string.
func FormatStatus(status string) string {
	if NoColor {
		return status
	}
	switch status {
	case "recognized", "allowed", "match", "valid":
		return ColorGreen + status + ColorReset
	case "unknown", "denied", "mismatch", "invalid":
		return ColorRed + status + ColorReset
	case "weak":
		return ColorYellow + status + ColorReset
	default:
		return status
	}
}
