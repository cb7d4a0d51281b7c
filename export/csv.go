// Package export writes the trajectory records of a run to files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cyclopcam/logs"

	"github.com/AmirHoseinTaherkhani/object-mapping/mapping"
)

// CSVHeader is the column layout of trajectory CSV files
var CSVHeader = []string{"frame", "track_id", "class_name", "confidence",
	"pixel_x", "pixel_y", "world_x", "world_y"}

// WriteCSV writes the header and one row per record to w
func WriteCSV(w io.Writer, records []mapping.Record) error {

	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	row := make([]string, len(CSVHeader))

	for _, r := range records {
		row[0] = strconv.Itoa(r.Frame)
		row[1] = strconv.FormatInt(r.TrackID, 10)
		row[2] = r.ClassName
		row[3] = formatFloat(r.Confidence)
		row[4] = formatFloat(r.PixelX)
		row[5] = formatFloat(r.PixelY)
		row[6] = formatFloat(r.WorldX)
		row[7] = formatFloat(r.WorldY)

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVSink writes records to a CSV file when a run ends
type CSVSink struct {
	log  logs.Log
	path string
}

// NewCSVSink returns a sink writing to path, replacing any existing file
func NewCSVSink(log logs.Log, path string) *CSVSink {
	return &CSVSink{log: log, path: path}
}

// Path returns the output file
func (s *CSVSink) Path() string {
	return s.path
}

// Export writes the records to the CSV file.  The file is written under a
// temporary name and renamed so a failed export never leaves a partial file.
func (s *CSVSink) Export(ctx context.Context, records []mapping.Record, summary mapping.Summary) error {

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("error writing CSV file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error closing CSV file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("error renaming CSV file: %w", err)
	}

	s.log.Infof("Saved %v records from %v frames to %v", len(records), summary.Frames, s.path)

	return nil
}
