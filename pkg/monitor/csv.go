package monitor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// CSVHeader is the first row of a position log.
var CSVHeader = []string{"timestamp", "x", "y", "z", "a", "elapsed_ms"}

// CSVLogger writes one row per reading.
type CSVLogger struct {
	Start time.Time

	w      *csv.Writer
	closer io.Closer
}

// NewCSVLogger writes the header and returns the logger.
func NewCSVLogger(w io.Writer, start time.Time) (*CSVLogger, error) {
	l := &CSVLogger{Start: start, w: csv.NewWriter(w)}
	if closer, ok := w.(io.Closer); ok {
		l.closer = closer
	}
	if err := l.w.Write(CSVHeader); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateCSVLog creates a log file in dir named after start.
func CreateCSVLog(dir string, start time.Time) (*CSVLogger, string, error) {
	name := fmt.Sprintf("%s/position_log_%s.csv", dir, start.Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		return nil, "", err
	}
	l, err := NewCSVLogger(f, start)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	return l, name, nil
}

// Log writes a reading taken at t.
func (l *CSVLogger) Log(t time.Time, pos axis.Vector) error {
	row := make([]string, 0, len(CSVHeader))
	row = append(row, t.Format("2006-01-02T15:04:05.000000"))
	for _, v := range pos {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	elapsed := float64(t.Sub(l.Start)) / float64(time.Millisecond)
	row = append(row, strconv.FormatFloat(elapsed, 'f', 3, 64))
	return l.w.Write(row)
}

// Flush flushes buffered rows.
func (l *CSVLogger) Flush() error {
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the underlying writer.
func (l *CSVLogger) Close() error {
	err := l.Flush()
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
