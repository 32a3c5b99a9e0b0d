package theme

import (
	"fmt"
)

// Banner returns the glassbox startup banner.
func Banner() string {
	const cyan = "\033[36m"
	const magenta = "\033[35m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		"   ◆ " + magenta + "GLASSBOX" + reset + " ◆\n" +
		cyan + "  ┌─────────────────────────┐\n" + reset +
		cyan + "  │  see through your taste │\n" + reset +
		cyan + "  └─────────────────────────┘\n" + reset +
		yellow + "  a local-first movie feed that explains itself\n" + reset
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
