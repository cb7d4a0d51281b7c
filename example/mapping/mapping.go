package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"gocv.io/x/gocv"

	"github.com/AmirHoseinTaherkhani/object-mapping/config"
	"github.com/AmirHoseinTaherkhani/object-mapping/detect"
	"github.com/AmirHoseinTaherkhani/object-mapping/export"
	"github.com/AmirHoseinTaherkhani/object-mapping/homography"
	"github.com/AmirHoseinTaherkhani/object-mapping/mapping"
	"github.com/AmirHoseinTaherkhani/object-mapping/render"
	"github.com/AmirHoseinTaherkhani/object-mapping/tracker"
)

// Mapper renders the map alongside a mapping run
type Mapper struct {
	log    logs.Log
	canvas *render.MapCanvas
	// video is the source video the detections were made on, may be nil
	video *gocv.VideoCapture
	// frame is the current video frame and frameNo its 1 based number
	frame   gocv.Mat
	frameNo int
	// offset converts detection frame numbers to video frame numbers, it
	// is 1 for streams counting from 0
	offset  int
	started bool
	// saveEvery writes an image every N frames, 0 disables it
	saveEvery int
	outDir    string
}

// onFrame is called from the render goroutine for every processed frame
func (m *Mapper) onFrame(res mapping.FrameResult) error {

	m.canvas.Update(res.Records, res.ActiveIDs)

	if !m.started {
		m.started = true
		if res.Frame == 0 {
			m.offset = 1
		}
	}

	if m.video != nil {
		if err := m.seek(res.Frame + m.offset); err != nil {
			// keep mapping without the video panel
			m.log.Warnf("Dropping video: %v", err)
			m.closeVideo()
		}
	}

	if m.saveEvery <= 0 || res.Frame%m.saveEvery != 0 {
		return nil
	}

	return m.save(res, fmt.Sprintf("map_%06d.png", res.Frame))
}

// seek reads video frames until frame number n is current
func (m *Mapper) seek(n int) error {

	for m.frameNo < n {
		if ok := m.video.Read(&m.frame); !ok || m.frame.Empty() {
			return fmt.Errorf("video ended before frame %d", n)
		}
		m.frameNo++
	}

	return nil
}

// save writes the map, beside the annotated video frame when there is one
func (m *Mapper) save(res mapping.FrameResult, name string) error {

	mapImg := m.canvas.Render()
	defer mapImg.Close()

	out := mapImg

	if m.video != nil && m.frameNo == res.Frame+m.offset {
		annotated := m.frame.Clone()
		defer annotated.Close()

		render.FrameOverlay(&annotated, res, render.DefaultFont(), 2)

		out = render.SideBySide(annotated, mapImg, render.Black)
		defer out.Close()
	}

	path := filepath.Join(m.outDir, name)

	if ok := gocv.IMWrite(path, out); !ok {
		return fmt.Errorf("failed to write image %s", path)
	}

	return nil
}

// closeVideo frees the video resources
func (m *Mapper) closeVideo() {
	if m.video != nil {
		m.video.Close()
		m.frame.Close()
		m.video = nil
	}
}

// options are the command line settings
type options struct {
	detFile    string
	configFile string
	calibFile  string
	videoFile  string
	outDir     string
	sqlitePath string
	assignment string
	colorMode  string
	saveEvery  int
}

func main() {
	parser := argparse.NewParser("mapping", "Track detections and map them to world coordinates")
	detFile := parser.String("d", "detections", &argparse.Options{Help: "Detector output, one JSON frame per line", Required: true})
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON configuration file", Required: false})
	calibFile := parser.String("g", "calibration", &argparse.Options{Help: "Calibration points JSON file, overrides the config", Required: false})
	videoFile := parser.String("v", "video", &argparse.Options{Help: "Video the detections were made on, shown beside the map", Required: false})
	outDir := parser.String("o", "output", &argparse.Options{Help: "Output directory, overrides the config", Required: false})
	sqlitePath := parser.String("", "sqlite", &argparse.Options{Help: "Also store the records in this SQLite database", Required: false})
	assignment := parser.Selector("a", "assignment", []string{"greedy", "optimal"}, &argparse.Options{Help: "Track assignment method, overrides the config", Required: false})
	colorMode := parser.Selector("", "color", []string{"class", "track"}, &argparse.Options{Help: "Map color mode, overrides the config", Required: false})
	saveEvery := parser.Int("s", "save-every", &argparse.Options{Help: "Save a map image every N frames, overrides the config", Required: false, Default: -1})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Error creating log: %v\n", err)
		os.Exit(1)
	}

	err = run(logger, options{
		detFile:    *detFile,
		configFile: *configFile,
		calibFile:  *calibFile,
		videoFile:  *videoFile,
		outDir:     *outDir,
		sqlitePath: *sqlitePath,
		assignment: *assignment,
		colorMode:  *colorMode,
		saveEvery:  *saveEvery,
	})

	// every resource opened by run is closed by the time it returns
	if err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}

	logger.Close()
}

// loadConfig reads the config file, when given, and applies the command line
// overrides
func loadConfig(opts options) (*config.Config, error) {

	cfg := config.Default()

	if opts.configFile != "" {
		var err error
		if cfg, err = config.Load(opts.configFile); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if opts.calibFile != "" {
		cfg.Calibration.File = opts.calibFile
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.sqlitePath != "" {
		cfg.Output.SQLite = opts.sqlitePath
	}
	if opts.assignment != "" {
		cfg.Tracker.Assignment = opts.assignment
	}
	if opts.colorMode != "" {
		cfg.Map.ColorMode = opts.colorMode
	}
	if opts.saveEvery >= 0 {
		cfg.Output.MapEvery = opts.saveEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Calibration.File == "" {
		return nil, errors.New("no calibration file given, use --calibration or set calibration.file")
	}

	return cfg, nil
}

// run performs the whole mapping session
func run(logger logs.Log, opts options) error {

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	// calibration
	calc := homography.NewCalculator(logger, cfg.HomographyOptions())

	if err := calc.LoadFile(cfg.Calibration.File); err != nil {
		return fmt.Errorf("error loading calibration: %w", err)
	}

	if err := calc.Calculate(); err != nil {
		return fmt.Errorf("error calculating homography: %w", err)
	}

	report := calc.Validate(cfg.Calibration.ValidationThreshold)
	if report.Valid {
		logger.Infof("Calibration valid, mean error %.3f, max error %.3f", report.MeanError, report.MaxError)
	} else {
		logger.Warnf("Calibration max error %.3f exceeds threshold %.3f", report.MaxError, report.Threshold)
	}

	// tracking and mapping
	trkCfg, err := cfg.TrackerConfig()
	if err != nil {
		return fmt.Errorf("invalid tracker configuration: %w", err)
	}

	popts, err := cfg.PipelineOptions()
	if err != nil {
		return fmt.Errorf("error loading class labels: %w", err)
	}

	pipeline := mapping.NewPipeline(logger, calc, tracker.New(trkCfg), popts)

	mode, err := render.ParseColorMode(cfg.Map.ColorMode)
	if err != nil {
		return fmt.Errorf("invalid color mode: %w", err)
	}

	canvasOpts := render.DefaultCanvasOptions()
	canvasOpts.Width = cfg.Map.Width
	canvasOpts.Height = cfg.Map.Height
	canvasOpts.Bounds = render.BoundsFromPoints(calc.WorldPoints(), cfg.Map.Buffer)
	canvasOpts.GridSpacing = cfg.Map.GridSpacing
	canvasOpts.Trail.Length = cfg.Map.TrailLength
	canvasOpts.HideGrid = !cfg.Map.ShowGrid
	canvasOpts.HideTrails = !cfg.Map.ShowTrails
	canvasOpts.ColorMode = mode

	b := canvasOpts.Bounds
	logger.Infof("Map bounds: X(%.1f, %.1f) Y(%.1f, %.1f)", b.XMin, b.XMax, b.YMin, b.YMax)

	mapper := &Mapper{
		log:       logger,
		canvas:    render.NewMapCanvas(canvasOpts),
		saveEvery: cfg.Output.MapEvery,
		outDir:    cfg.Output.Dir,
	}
	defer mapper.closeVideo()

	if opts.videoFile != "" {
		video, err := gocv.VideoCaptureFile(opts.videoFile)
		if err != nil {
			return fmt.Errorf("error opening video: %w", err)
		}
		mapper.video = video
		mapper.frame = gocv.NewMat()
	}

	// outputs
	sinks := []mapping.Sink{export.NewCSVSink(logger, cfg.OutputPath(cfg.Output.CSV))}

	if cfg.Output.SQLite != "" {
		store, err := export.OpenSQLite(logger, cfg.OutputPath(cfg.Output.SQLite))
		if err != nil {
			return fmt.Errorf("error opening SQLite database: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	src, err := detect.OpenJSONL(opts.detFile)
	if err != nil {
		return fmt.Errorf("error opening detections: %w", err)
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var last mapping.FrameResult

	err = pipeline.Run(ctx, src, mapping.RunOptions{
		OnFrame: func(res mapping.FrameResult) error {
			last = res
			return mapper.onFrame(res)
		},
		Sinks: sinks,
	})

	switch {
	case errors.Is(err, context.Canceled):
		logger.Infof("Processing interrupted by user")
	case err != nil:
		return fmt.Errorf("processing failed: %w", err)
	}

	if err := mapper.save(last, "map_final.png"); err != nil {
		logger.Warnf("Error saving final map: %v", err)
	}

	stats := pipeline.Stats()
	summary := pipeline.Store().Summary()

	logger.Infof("Kept %v of %v detections over %v frames", stats.Kept, stats.Detections, stats.Frames)
	if stats.Malformed > 0 {
		logger.Warnf("Skipped %v detections with a malformed box", stats.Malformed)
	}
	logger.Infof("%v records, %v unique tracks, frames %v to %v",
		summary.Records, summary.UniqueTracks, summary.FirstFrame, summary.LastFrame)

	for class, n := range summary.ClassCounts {
		logger.Infof("  %v: %v records", class, n)
	}

	if summary.Records > 0 {
		logger.Infof("Confidence min %.3f mean %.3f max %.3f",
			summary.MinConfidence, summary.MeanConfidence, summary.MaxConfidence)
	}

	return nil
}
