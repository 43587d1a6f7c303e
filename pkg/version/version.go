// Package version provides build information for the relay binary.
package version

// Set via ldflags during release builds.
//
//nolint:gochecknoglobals // intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// Version returns the release version.
func Version() string {
	return version
}

// BuildID returns the build identifier.
func BuildID() string {
	return buildID
}
