//go:build !glfw

package glfw

import (
	"fmt"
	"time"

	"github.com/valerio/go-vsync/vsync"
)

// Source stub for when GLFW is not available
type Source struct {
	*vsync.ChannelSource
}

// Open returns an error indicating GLFW is not available
func Open(title string, nominal time.Duration) (*Source, error) {
	return nil, fmt.Errorf("GLFW vsync source not available - build with -tags glfw to enable")
}
