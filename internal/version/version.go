// Package version exposes the build version.
package version

// value is overridable at build time:
//
//	go build -ldflags "-X github.com/Janarthanan-Gnanamurthy/Planora/internal/version.value=1.2.3"
var value = "0.1.0"

// Get returns the current version.
func Get() string {
	return value
}
