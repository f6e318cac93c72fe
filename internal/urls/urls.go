package urls

import "strings"

// Repository is the project home, shown in the editor header.
const Repository = "https://github.com/muurk/discojar"

// Issues is where malformed lamp responses and modem quirks get reported.
const Issues = Repository + "/issues"

// Display strips the scheme for compact headers.
func Display(u string) string {
	return strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
}
