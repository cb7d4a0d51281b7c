package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"

	"github.com/AmirHoseinTaherkhani/object-mapping/homography"
)

// parsePoint parses an "x,y" pixel coordinate
func parsePoint(s string) (homography.Point, error) {

	xs, ys, found := strings.Cut(s, ",")
	if !found {
		return homography.Point{}, fmt.Errorf("point %q must be x,y", s)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return homography.Point{}, fmt.Errorf("point %q: %w", s, err)
	}

	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return homography.Point{}, fmt.Errorf("point %q: %w", s, err)
	}

	return homography.Pt(x, y), nil
}

func main() {
	parser := argparse.NewParser("calibrate", "Calculate and validate the image to ground plane homography")
	input := parser.String("i", "input", &argparse.Options{Help: "Calibration points JSON file", Required: true})
	threshold := parser.Float("t", "threshold", &argparse.Options{Help: "Maximum reprojection error for a valid calibration", Default: homography.DefaultValidationThreshold})
	ransac := parser.Float("r", "ransac", &argparse.Options{Help: "RANSAC inlier threshold in world units", Default: homography.DefaultOptions().RansacThreshold})
	seed := parser.Int("", "seed", &argparse.Options{Help: "RANSAC sampling seed", Default: int(homography.DefaultOptions().Seed)})
	plotFile := parser.String("p", "plot", &argparse.Options{Help: "Save an accuracy plot to this image file", Required: false})
	points := parser.StringList("x", "transform", &argparse.Options{Help: "Pixel point x,y to transform, may be repeated", Required: false})
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
	defer logger.Close()

	opts := homography.DefaultOptions()
	opts.RansacThreshold = *ransac
	opts.Seed = int64(*seed)

	calc := homography.NewCalculator(logger, opts)

	if err := calc.LoadFile(*input); err != nil {
		logger.Errorf("Error loading calibration: %v", err)
		os.Exit(1)
	}

	if err := calc.Calculate(); err != nil {
		logger.Errorf("Error calculating homography: %v", err)
		os.Exit(1)
	}

	meta := calc.Metadata()
	if meta.VideoName != "" {
		logger.Infof("Calibration of %v frame %v", meta.VideoName, meta.FrameNumber)
	}

	summary := calc.Summary()
	logger.Infof("Homography matrix %v", summary.Matrix)
	logger.Infof("%v points, %v inliers", summary.NumPoints, summary.Inliers)

	report := calc.Validate(*threshold)
	logger.Infof("Validation: %v", report)

	for _, c := range calc.Correspondences() {
		w, err := calc.TransformPoint(c.Pixel)
		if err != nil {
			logger.Errorf("Error transforming point: %v", err)
			os.Exit(1)
		}
		logger.Infof("  %-20s pixel (%.1f, %.1f) -> world (%.3f, %.3f), expected (%.3f, %.3f)",
			c.Description, c.Pixel.X, c.Pixel.Y, w.X, w.Y, c.World.X, c.World.Y)
	}

	for _, s := range *points {
		p, err := parsePoint(s)
		if err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		w, err := calc.TransformPoint(p)
		if err != nil {
			logger.Errorf("Error transforming point: %v", err)
			os.Exit(1)
		}
		logger.Infof("Pixel (%.1f, %.1f) -> world (%.3f, %.3f)", p.X, p.Y, w.X, w.Y)
	}

	if *plotFile != "" {
		if err := calc.SaveAccuracyPlot(*plotFile); err != nil {
			logger.Errorf("Error saving plot: %v", err)
			os.Exit(1)
		}
		logger.Infof("Saved accuracy plot to %v", *plotFile)
	}

	if !report.Valid {
		logger.Warnf("Calibration is not valid at threshold %.3f", *threshold)
		os.Exit(2)
	}
}
