// ABOUTME: Product and version strings
// ABOUTME: Reported by the CLI and in the startup log line
package version

import "fmt"

const (
	Version      = "0.3.0"
	Product      = "baresip-gst"
	Manufacturer = "Deep Sentinel"
)

// String returns "product version"
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
