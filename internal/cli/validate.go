package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/stitchy/internal/filehandler"
)

// ValidateAndResolveDirectory checks that the path exists and is a directory,
// then returns the absolute path. Exits fatally on failure.
func ValidateAndResolveDirectory(dirPath string) string {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatal().Str("path", dirPath).Msg("Directory not found")
		}
		log.Fatal().Err(err).Str("path", dirPath).Msg("Failed to access directory")
	}
	if !info.IsDir() {
		log.Fatal().Str("path", dirPath).Msg("Path is not a directory")
	}

	absPath, err := filepath.Abs(dirPath)
	if err == nil {
		dirPath = absPath
	}

	return dirPath
}

// InputFile is a validated input path with the media type its extension
// declares.
type InputFile struct {
	Path      string
	MediaType string
	Size      int64
}

// ResolveInputs checks that every path is a regular file with a supported
// image extension. Order is preserved.
func ResolveInputs(paths []string) ([]InputFile, error) {
	files := make([]InputFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", p, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("input %s is not a regular file", p)
		}

		mediaType, err := filehandler.GetMIMEType(filepath.Ext(p))
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", p, err)
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		files = append(files, InputFile{Path: abs, MediaType: mediaType, Size: info.Size()})
	}
	return files, nil
}

// DefaultOutputPath names the output after the first input, next to it.
func DefaultOutputPath(firstInput, ext string) string {
	dir := filepath.Dir(firstInput)
	base := filepath.Base(firstInput)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, base+"_stitch."+ext)
}
