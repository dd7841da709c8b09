//go:build !sdl2

package sdl2

import (
	"fmt"
	"time"

	"github.com/valerio/go-vsync/vsync"
)

// Source stub for when SDL2 is not available
type Source struct {
	*vsync.ChannelSource
}

// Open returns an error indicating SDL2 is not available
func Open(title string, nominal time.Duration) (*Source, error) {
	return nil, fmt.Errorf("SDL2 vsync source not available - build with -tags sdl2 to enable")
}
