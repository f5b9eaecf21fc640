// Package output resolves the host's output descriptor to an image format
// and writes the encoded composite to it.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// fdLinkDir is where the kernel exposes the path behind each open descriptor.
var fdLinkDir = "/proc/self/fd"

// Target is a host output descriptor with a resolved format. The descriptor
// stays owned by the host.
type Target struct {
	fd     int
	Format filehandler.Format
	// Source records how Format was decided: "media type" or "path".
	Source string
}

// FD returns the host descriptor.
func (t *Target) FD() int {
	return t.fd
}

// Resolve decides the output format. A recognized mediaType wins. Otherwise
// the format is inferred from the extension of the file behind fd. When
// neither works the call fails with a format error and fd is not touched.
func Resolve(fd int, mediaType string) (*Target, error) {
	if f := filehandler.FormatFromMediaType(mediaType); f != filehandler.FormatUnknown {
		return &Target{fd: fd, Format: f, Source: "media type"}, nil
	}

	if mediaType != "" {
		log.Debug().Str("media_type", mediaType).Int("fd", fd).Msg("Unrecognized output media type, inferring from path")
	}

	path, err := os.Readlink(filepath.Join(fdLinkDir, strconv.Itoa(fd)))
	if err != nil {
		return nil, stitcherr.New(stitcherr.KindFormat,
			"could not determine format for output fd %d (media type %q): %v", fd, mediaType, err)
	}

	f := filehandler.FormatFromExtension(filepath.Ext(path))
	if f == filehandler.FormatUnknown {
		return nil, stitcherr.New(stitcherr.KindFormat,
			"could not determine format for output fd %d (media type %q, path %q)", fd, mediaType, path)
	}

	log.Debug().Str("path", path).Str("format", f.String()).Msg("Inferred output format from path")
	return &Target{fd: fd, Format: f, Source: "path"}, nil
}

func (t *Target) String() string {
	return fmt.Sprintf("fd %d as %s (from %s)", t.fd, t.Format.MediaType(), t.Source)
}
