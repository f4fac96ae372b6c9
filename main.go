package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/publish"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// options holds the parsed command line. Zero values mean "not given".
type options struct {
	sceneName string
	sceneFile string
	width     int
	height    int
	samples   int
	depth     int
	passes    int
	workers   int
	seed      int64
	seedSet   bool
	out       string
	thumbnail int
	upload    bool
	envFile   string
	help      bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses the command line into options
func parseFlags(args []string, stdout io.Writer) (options, *flag.FlagSet, error) {
	var opts options
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(stdout)

	fs.StringVar(&opts.sceneName, "scene", "default", "Built-in scene: "+strings.Join(scene.Names(), ", "))
	fs.StringVar(&opts.sceneFile, "scene-file", "", "Load the scene from a JSON file instead")
	fs.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", 0, "Maximum bounce depth (0 = scene default)")
	fs.IntVar(&opts.passes, "passes", 0, "Progressive passes (0 = default)")
	fs.IntVar(&opts.workers, "workers", 0, "Parallel workers (0 = CPU count)")
	fs.Int64Var(&opts.seed, "seed", 0, "Random seed for sampling and random scenes")
	fs.StringVar(&opts.out, "out", "", "Output file (default output/<scene>/render_<timestamp>.png); .ppm writes ASCII PPM")
	fs.IntVar(&opts.thumbnail, "thumbnail", 0, "Also save a thumbnail of this width")
	fs.BoolVar(&opts.upload, "upload", false, "Upload the render to S3 (needs S3_* settings)")
	fs.StringVar(&opts.envFile, "env", ".env", "Environment file to load")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seedSet = true
		}
	})

	for name, v := range map[string]int{"width": opts.width, "height": opts.height, "samples": opts.samples,
		"depth": opts.depth, "passes": opts.passes, "workers": opts.workers, "thumbnail": opts.thumbnail} {
		if v < 0 {
			return opts, fs, fmt.Errorf("-%s must not be negative, got %d", name, v)
		}
	}

	return opts, fs, nil
}

// printHelp prints usage information
func printHelp(fs *flag.FlagSet, stdout io.Writer) {
	fmt.Fprintln(stdout, "Path Tracer")
	fmt.Fprintln(stdout, "Usage: pathtracer [options]")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Available scenes:")
	for _, info := range scene.ListBuiltinScenes() {
		fmt.Fprintf(stdout, "  %-15s %s\n", info.ID, info.Description)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Output will be saved to output/<scene>/render_<timestamp>.png")
}

// pick returns the first non-zero value
func pick(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// resolveSeed returns the seed from the flag, then the environment, then the default
func resolveSeed(opts options, cfg config.Config) int64 {
	switch {
	case opts.seedSet:
		return opts.seed
	case cfg.SeedSet:
		return cfg.Seed
	default:
		return scene.DefaultSeed
	}
}

// createScene loads the scene file or builds the named scene, then applies
// environment and flag overrides on top of the scene's own sampling settings
func createScene(opts options, cfg config.Config) (*scene.Scene, error) {
	var s *scene.Scene
	var err error

	if opts.sceneFile != "" {
		s, err = loaders.LoadScene(opts.sceneFile)
	} else {
		s, err = scene.NewWithSeed(opts.sceneName, resolveSeed(opts, cfg))
	}
	if err != nil {
		return nil, err
	}

	overrides := renderer.SamplingConfig{
		Width:           pick(opts.width, cfg.Width),
		Height:          pick(opts.height, cfg.Height),
		SamplesPerPixel: pick(opts.samples, cfg.Samples),
		MaxDepth:        pick(opts.depth, cfg.MaxDepth),
	}
	if err := s.ApplySamplingOverrides(overrides); err != nil {
		return nil, err
	}
	return s, nil
}

// outputPath returns the file the render is written to
func outputPath(opts options, cfg config.Config, sceneName string, now time.Time) string {
	if opts.out != "" {
		return opts.out
	}
	timestamp := now.Format("20060102_150405")
	return filepath.Join(cfg.OutputDir, sceneName, fmt.Sprintf("render_%s.png", timestamp))
}

// thumbnailPath derives the thumbnail file name from the render's path
func thumbnailPath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".ppm") {
		ext = ".png"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_thumb" + ext
}

// writeImage saves img to path; .ppm files use the ASCII PPM writer
func writeImage(img image.Image, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".ppm") {
		return output.Save(img, path)
	}

	bounds := img.Bounds()
	ppm := output.NewPPMSink(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			ppm.SetPixel(x-bounds.Min.X, y-bounds.Min.Y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := ppm.WriteTo(file); err != nil {
		return err
	}
	return file.Close()
}

// run executes the command line and returns the first error
func run(args []string, stdout io.Writer) error {
	opts, fs, err := parseFlags(args, stdout)
	if err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(fs, stdout)
		return nil
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Starting Path Tracer...")

	selectedScene, err := createScene(opts, cfg)
	if err != nil {
		return fmt.Errorf("failed to create scene: %w", err)
	}
	sampling := selectedScene.GetSamplingConfig()
	fmt.Fprintf(stdout, "Using %s scene (%dx%d, %d samples, depth %d, %d shapes)...\n",
		selectedScene.Name, sampling.Width, sampling.Height, sampling.SamplesPerPixel, sampling.MaxDepth,
		selectedScene.GetPrimitiveCount())

	progressiveConfig := renderer.DefaultProgressiveConfig()
	if opts.passes > 0 {
		progressiveConfig.MaxPasses = opts.passes
	}
	progressiveConfig.NumWorkers = pick(opts.workers, cfg.Workers)
	progressiveConfig.Seed = resolveSeed(opts, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	raytracer := renderer.NewProgressiveRaytracer(selectedScene, progressiveConfig, renderer.NewDefaultLogger())
	img, stats, err := raytracer.Render(ctx)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	renderTime := time.Since(startTime)

	fmt.Fprintf(stdout, "Render completed in %v\n", renderTime)
	fmt.Fprintf(stdout, "Samples per pixel: %.1f (range %d - %d)\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed)

	path := outputPath(opts, cfg, selectedScene.Name, time.Now())
	if err := writeImage(img, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Render saved as %s\n", path)

	if opts.thumbnail > 0 {
		thumbPath := thumbnailPath(path)
		if err := output.Save(output.Thumbnail(img, opts.thumbnail), thumbPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Thumbnail saved as %s\n", thumbPath)
	}

	if opts.upload {
		uploader, err := publish.NewUploader(cfg, renderer.NewDefaultLogger())
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := output.Encode(&buf, img, "png"); err != nil {
			return err
		}
		key := selectedScene.Name + "/" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
		url, err := uploader.Upload(ctx, key, buf.Bytes(), output.ContentType("png"))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Uploaded to %s\n", url)
	}

	return nil
}
