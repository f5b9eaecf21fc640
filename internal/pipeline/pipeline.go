// Package pipeline is the single entry point the host calls: it reads the
// call arguments from the host, runs resolve, locate, stitch and encode in
// order, and turns the outcome into the one string the host receives.
package pipeline

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/hostenv"
	"github.com/fpang/stitchy/internal/located"
	"github.com/fpang/stitchy/internal/options"
	"github.com/fpang/stitchy/internal/output"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// InputKind selects how Request.Inputs is interpreted.
type InputKind int

const (
	// FileDescriptors means Inputs is a host int array of raw descriptors.
	FileDescriptors InputKind = iota
	// DirectBuffers means Inputs is a host array of direct byte buffers.
	DirectBuffers
)

func (k InputKind) String() string {
	if k == DirectBuffers {
		return "buffers"
	}
	return "fds"
}

// Request carries the host references of one call. The referenced objects
// are owned by the host; nothing here outlives the call.
type Request struct {
	Options         hostenv.Ref
	InputKind       InputKind
	Inputs          hostenv.Ref
	InputMediaTypes hostenv.Ref
	OutputFD        int32
	// OutputMediaType may be hostenv.NullRef.
	OutputMediaType hostenv.Ref
}

// Result describes a completed call.
type Result struct {
	CallID   string
	Inputs   int
	Width    int
	Height   int
	Format   filehandler.Format
	Bytes    int
	Duration time.Duration
}

// Run executes one call and returns "" on success or the failure message.
// It never panics.
func Run(env hostenv.Env, req Request) string {
	_, err := Execute(env, req)
	return stitcherr.Translate(err)
}

// Execute executes one call and returns its classified error, if any. A
// panic anywhere below is recovered and returned as an unclassified error.
func Execute(env hostenv.Env, req Request) (result *Result, err error) {
	start := time.Now()
	callID := uuid.NewString()
	logger := log.With().Str("call", callID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in stitch call")
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}

		if err != nil {
			logger.Error().
				Err(err).
				Str("kind", stitcherr.KindOf(err).String()).
				Dur("duration", time.Since(start)).
				Msg("Stitch call failed")
			return
		}
		result.CallID = callID
		result.Duration = time.Since(start)
		logger.Info().
			Int("inputs", result.Inputs).
			Int("width", result.Width).
			Int("height", result.Height).
			Str("format", result.Format.String()).
			Int("bytes", result.Bytes).
			Dur("duration", result.Duration).
			Msg("Stitch call completed")
	}()

	logger.Debug().
		Str("input_kind", req.InputKind.String()).
		Int32("output_fd", req.OutputFD).
		Msg("Stitch call started")

	return execute(env, req, logger)
}

func execute(env hostenv.Env, req Request, logger zerolog.Logger) (*Result, error) {
	sink, err := hostenv.NewLogger(env, logger)
	if err != nil {
		return nil, err
	}

	rawOptions, err := env.GetString(req.Options)
	if err != nil {
		return nil, stitcherr.Boundary(err, "failed to read options string")
	}
	opts, err := options.Decode(rawOptions)
	if err != nil {
		return nil, err
	}

	inputs, err := resolveInputs(env, req)
	if err != nil {
		return nil, err
	}
	mediaTypes, err := hostenv.ResolveStrings(env, req.InputMediaTypes)
	if err != nil {
		return nil, err
	}
	outputMediaType, err := hostenv.ResolveOptionalString(env, req.OutputMediaType)
	if err != nil {
		return nil, err
	}

	images, err := located.Build(inputs, mediaTypes, time.Now(), sink)
	if err != nil {
		return nil, err
	}

	composite, err := stitchImages(images, opts)
	if err != nil {
		return nil, err
	}
	if err := sink.Log("Stitch completed"); err != nil {
		return nil, err
	}

	target, err := output.Resolve(int(req.OutputFD), outputMediaType)
	if err != nil {
		return nil, err
	}
	n, err := target.Write(composite, output.Params{
		Quality:     int(opts.Quality),
		PreferSmall: opts.Small,
	})
	if err != nil {
		return nil, err
	}
	if err := sink.Logf("Output written (%s, %d bytes); Stitchy completed successfully", target.Format.MediaType(), n); err != nil {
		return nil, err
	}

	size := composite.Bounds().Size()
	return &Result{
		Inputs: len(images),
		Width:  size.X,
		Height: size.Y,
		Format: target.Format,
		Bytes:  n,
	}, nil
}

func resolveInputs(env hostenv.Env, req Request) ([]filehandler.Input, error) {
	switch req.InputKind {
	case FileDescriptors:
		return hostenv.ResolveFDs(env, req.Inputs)
	case DirectBuffers:
		return hostenv.ResolveBuffers(env, req.Inputs)
	default:
		return nil, stitcherr.New(stitcherr.KindBoundary, "unknown input kind %d", int(req.InputKind))
	}
}
