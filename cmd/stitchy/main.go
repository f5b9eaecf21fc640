// Package main is the desktop front end of the stitcher. It opens the
// chosen images, hands their raw descriptors to an in-process host and runs
// the same pipeline the Android app calls through libstitchy.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/stitchy/internal/cli"
	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/hostenv"
	"github.com/fpang/stitchy/internal/logging"
	"github.com/fpang/stitchy/internal/metrics"
	"github.com/fpang/stitchy/internal/options"
	"github.com/fpang/stitchy/internal/pipeline"
	"github.com/fpang/stitchy/internal/s3util"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// Set at build time with -ldflags "-X main.commitHash=... -X main.buildTime=...".
var (
	commitHash = "dev"
	buildTime  = ""
)

// CLI flags
var (
	directoryFlag   string
	maxDepthFlag    int
	limitFlag       int
	outputFlag      string
	optionsFileFlag string
	saveOptionsFlag bool
	envFileFlag     string
	logFileFlag     string
	uploadFlag      string
	presignFlag     time.Duration
	metricsFlag     bool

	horizontalFlag bool
	verticalFlag   bool
	gridFlag       bool
	qualityFlag    uint32
	smallFlag      bool
	fastFlag       bool
	maxDFlag       uint32
	maxWFlag       uint32
	maxHFlag       uint32
	formatFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "stitchy [images...]",
	Short: "Stitch images into one",
	Long: `Stitchy joins images side by side, top to bottom, or in a grid, scales the
result to fit the configured limits, and writes it in the chosen format.

Images come from the arguments, from a directory scan, or, when neither is
given, from a file picker. Options are read from a YAML file and can be
overridden with flags.

Examples:
  stitchy a.jpg b.png c.jpg
  stitchy --vertical --maxd 2048 -o tall.webp a.jpg b.jpg
  stitchy -d ./screenshots --grid --format jpeg --quality 85
  stitchy a.jpg b.jpg --upload s3://my-bucket/stitched --presign 1h
  stitchy  # Interactive mode - opens a file picker`,
	Run: runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&directoryFlag, "directory", "d", "", "Stitch every image in this directory, in name order")
	f.IntVar(&maxDepthFlag, "max-depth", 1, "Directory recursion depth (0 = unlimited)")
	f.IntVar(&limitFlag, "limit", 0, "Maximum images taken from the directory (0 = unlimited)")
	f.StringVarP(&outputFlag, "output", "o", "", "Output path (default: <first input>_stitch.<ext>)")
	f.StringVar(&optionsFileFlag, "options", defaultOptionsPath(), "YAML options file")
	f.BoolVar(&saveOptionsFlag, "save-options", false, "Write the effective options back to the options file")
	f.StringVar(&envFileFlag, "env-file", ".env", "Environment file loaded before anything else")
	f.StringVar(&logFileFlag, "log-file", "", "Also write JSON logs to this file, rotated by size")
	f.StringVar(&uploadFlag, "upload", "", "Upload the output to s3://bucket[/prefix]")
	f.DurationVar(&presignFlag, "presign", 0, "After uploading, print a pre-signed URL valid this long")
	f.BoolVar(&metricsFlag, "metrics", false, "Print an EMF metrics line to stdout")

	f.BoolVarP(&horizontalFlag, "horizontal", "H", false, "Arrange images left to right")
	f.BoolVarP(&verticalFlag, "vertical", "V", false, "Arrange images top to bottom")
	f.BoolVar(&gridFlag, "grid", false, "Arrange images in a grid")
	f.Uint32VarP(&qualityFlag, "quality", "q", options.DefaultJPEGQuality, "JPEG quality (0-100)")
	f.BoolVar(&smallFlag, "small", false, "Prefer smaller output over encode speed")
	f.BoolVar(&fastFlag, "fast", false, "Use nearest-neighbour resizing")
	f.Uint32Var(&maxDFlag, "maxd", options.MaxDimension, "Maximum width and height (0 = use --maxw/--maxh)")
	f.Uint32Var(&maxWFlag, "maxw", 0, "Maximum width (0 = unbounded)")
	f.Uint32Var(&maxHFlag, "maxh", 0, "Maximum height (0 = unbounded)")
	f.StringVarP(&formatFlag, "format", "f", "", "Output format: jpeg, png, gif, bmp, tiff, webp")

	rootCmd.MarkFlagsMutuallyExclusive("horizontal", "vertical", "grid")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultOptionsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "stitchy.yaml"
	}
	return filepath.Join(dir, "stitchy", "options.yaml")
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	if err := godotenv.Load(envFileFlag); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envFileFlag, err)
	}
	logging.Init(logFileFlag)

	opts, err := options.LoadFile(optionsFileFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", optionsFileFlag).Msg("Failed to load options")
	}
	formatChosen := applyFlags(cmd, &opts)
	if err := opts.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid options")
	}

	logging.NewStartupLogger("stitchy").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Formats("jpeg", "png", "gif", "bmp", "tiff", "webp").
		Feature("s3Upload", uploadFlag != "").
		Feature("metrics", metricsFlag).
		Config("optionsFile", optionsFileFlag).
		Config("alignment", opts.Alignment().String()).
		InitDuration(time.Since(initStart)).
		Log()

	if saveOptionsFlag {
		if err := os.MkdirAll(filepath.Dir(optionsFileFlag), 0o755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create options directory")
		}
		if err := options.SaveFile(optionsFileFlag, opts); err != nil {
			log.Fatal().Err(err).Msg("Failed to save options")
		}
		log.Info().Str("path", optionsFileFlag).Msg("Options saved")
	}

	paths, picked := collectInputs(args)
	inputs, err := cli.ResolveInputs(paths)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid input")
	}

	defaultPath := cli.DefaultOutputPath(inputs[0].Path, opts.FileExtension())
	outputPath := outputFlag
	if outputPath == "" {
		outputPath = defaultPath
		if picked {
			outputPath = cli.PromptForOutput(defaultPath)
		}
	}
	explicitOutput := outputPath != defaultPath

	// With an explicit output path and no explicit format, the format
	// follows the output file's extension.
	outputMediaType := opts.MediaType()
	if explicitOutput && !formatChosen {
		outputMediaType = ""
	}

	opts.Prepare()

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("Stitchy")
	fmt.Println("============================================")
	for i, in := range inputs {
		fmt.Printf("   %2d. %s (%s, %s)\n", i+1, filepath.Base(in.Path), in.MediaType, cli.FormatBytes(in.Size))
	}
	fmt.Printf("Layout: %s, limits %dx%d\n", opts.Alignment(), opts.MaxW, opts.MaxH)
	fmt.Println("--------------------------------------------")

	result, err := stitchFiles(inputs, outputPath, outputMediaType, opts)
	if metricsFlag {
		emitMetrics(result, err)
	}
	if err != nil {
		log.Fatal().
			Str("kind", stitcherr.KindOf(err).String()).
			Msg(stitcherr.Translate(err))
	}

	fmt.Printf("Output: %s\n", outputPath)
	fmt.Printf("Size: %dx%d %s, %s in %s\n",
		result.Width, result.Height, result.Format, cli.FormatBytes(int64(result.Bytes)), cli.FormatDurationShort(result.Duration))

	if uploadFlag != "" {
		upload(cmd.Context(), result, outputPath)
	}
}

// applyFlags overrides saved options with the flags given on the command
// line. It reports whether an output format was chosen explicitly.
func applyFlags(cmd *cobra.Command, opts *options.Options) bool {
	changed := cmd.Flags().Changed

	switch {
	case changed("horizontal"):
		opts.Horizontal, opts.Vertical = true, false
	case changed("vertical"):
		opts.Horizontal, opts.Vertical = false, true
	case changed("grid"):
		opts.Horizontal, opts.Vertical = false, false
	}
	if changed("quality") {
		opts.Quality = qualityFlag
	}
	if changed("small") {
		opts.Small = smallFlag
	}
	if changed("fast") {
		opts.Fast = fastFlag
	}
	if changed("maxd") {
		opts.MaxD = maxDFlag
	} else if changed("maxw") || changed("maxh") {
		// A saved maxd would otherwise overwrite the explicit limits.
		opts.MaxD = 0
	}
	if changed("maxw") {
		opts.MaxW = maxWFlag
	}
	if changed("maxh") {
		opts.MaxH = maxHFlag
	}
	if changed("format") {
		f := filehandler.FormatFromExtension("." + formatFlag)
		if f == filehandler.FormatUnknown {
			log.Fatal().Str("format", formatFlag).Msg("Unsupported output format")
		}
		opts.SetOutputFormat(f)
		return true
	}
	return false
}

// collectInputs returns the images to stitch and whether they came from the
// interactive picker.
func collectInputs(args []string) ([]string, bool) {
	if len(args) > 0 {
		return args, false
	}

	if directoryFlag != "" {
		dir := cli.ValidateAndResolveDirectory(directoryFlag)
		paths, err := filehandler.ScanDirectory(dir, filehandler.ScanOptions{MaxDepth: maxDepthFlag, Limit: limitFlag})
		if err != nil {
			log.Fatal().Err(err).Str("path", dir).Msg("Failed to scan directory")
		}
		if len(paths) == 0 {
			log.Fatal().Str("path", dir).Msg("No supported images found in directory")
		}
		return paths, false
	}

	paths, err := cli.PickImages()
	if err != nil {
		if errors.Is(err, cli.ErrCanceled) {
			log.Info().Msg("No images selected")
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("Failed to select images")
	}
	return paths, true
}

// stitchFiles opens every file, passes the descriptors to pipeline.Execute
// through an in-process host and removes the output again on failure.
func stitchFiles(inputs []cli.InputFile, outputPath, outputMediaType string, opts options.Options) (*pipeline.Result, error) {
	env := hostenv.NewMemEnv()

	fds := make([]int32, len(inputs))
	mediaTypes := make([]string, len(inputs))
	for i, in := range inputs {
		f, err := os.Open(in.Path)
		if err != nil {
			return nil, stitcherr.IO(err, "failed to open %s", in.Path)
		}
		defer f.Close()
		fds[i] = int32(f.Fd())
		mediaTypes[i] = in.MediaType
	}

	out, err := os.OpenFile(outputPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, stitcherr.IO(err, "failed to create %s", outputPath)
	}
	defer out.Close()

	req := pipeline.Request{
		Options:         env.NewString(opts.ToJSON()),
		InputKind:       pipeline.FileDescriptors,
		Inputs:          env.NewIntArray(fds),
		InputMediaTypes: env.NewStringArray(mediaTypes),
		OutputFD:        int32(out.Fd()),
	}
	if outputMediaType != "" {
		req.OutputMediaType = env.NewString(outputMediaType)
	}

	result, err := pipeline.Execute(env, req)
	if err != nil {
		out.Close()
		if rmErr := os.Remove(outputPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", outputPath).Msg("Failed to remove incomplete output")
		}
		return nil, err
	}
	return result, nil
}

func emitMetrics(result *pipeline.Result, err error) {
	rec := metrics.New(metrics.Namespace)
	if err != nil {
		rec.Dimension("Outcome", "failure").
			Count("StitchFailures").
			Property("errorKind", stitcherr.KindOf(err).String())
	} else {
		rec.Dimension("Outcome", "success").
			Dimension("Format", result.Format.String()).
			Duration("StitchLatency", result.Duration).
			Metric("InputCount", float64(result.Inputs), metrics.UnitCount).
			Metric("OutputBytes", float64(result.Bytes), metrics.UnitBytes).
			Metric("OutputPixels", float64(result.Width*result.Height), metrics.UnitCount).
			Property("callId", result.CallID)
	}
	if err := rec.Flush(); err != nil {
		log.Warn().Err(err).Msg("Failed to emit metrics")
	}
}

func upload(ctx context.Context, result *pipeline.Result, outputPath string) {
	if ctx == nil {
		ctx = context.Background()
	}

	dest, err := s3util.ParseURI(uploadFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid upload destination")
	}

	client, presigner, err := cli.InitS3Client(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 client")
	}

	key := dest.Key(result.CallID, result.Format.Extension(), time.Now())
	if err := s3util.UploadFile(ctx, client, dest.Bucket, key, outputPath, result.Format.MediaType()); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}
	fmt.Printf("Uploaded: s3://%s/%s\n", dest.Bucket, key)

	if presignFlag > 0 {
		url, err := s3util.GeneratePresignedURL(ctx, presigner, dest.Bucket, key, presignFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create pre-signed URL")
		}
		fmt.Printf("Link (valid %s): %s\n", presignFlag, url)
	}
}
