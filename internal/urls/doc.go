// Package urls provides centralized constants for the project URLs shown
// by the command-line tools.
//
// Usage:
//
//	import "github.com/muurk/discojar/internal/urls"
//
//	fmt.Printf("Report problems at: %s\n", urls.Issues)
package urls
