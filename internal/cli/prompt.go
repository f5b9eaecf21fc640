package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"github.com/fpang/stitchy/internal/filehandler"
)

// ErrCanceled is returned when the user closes the picker without choosing.
var ErrCanceled = errors.New("selection canceled")

// ImagePatterns returns the glob patterns of every supported image
// extension, upper and lower case.
func ImagePatterns() []string {
	patterns := make([]string, 0, 2*len(filehandler.SupportedImageExtensions))
	for ext := range filehandler.SupportedImageExtensions {
		patterns = append(patterns, "*"+ext, "*"+strings.ToUpper(ext))
	}
	sort.Strings(patterns)
	return patterns
}

// PickImages opens the native file picker for selecting images to stitch.
func PickImages() ([]string, error) {
	selected, err := zenity.SelectFileMultiple(
		zenity.Title("Select images to stitch"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: ImagePatterns(),
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("file picker failed: %w", err)
	}
	return selected, nil
}

// PromptForOutput asks for the output path on stdin. Returns defaultPath if
// the user enters nothing.
func PromptForOutput(defaultPath string) string {
	fmt.Printf("Output [%s]: ", defaultPath)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read input, using default output path")
		return defaultPath
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultPath
	}
	return input
}
