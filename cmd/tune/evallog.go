package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// evalLog appends EvalRecords to a CSV file, flushing after each row.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func newEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	return &evalLog{f: f}, nil
}

// Write appends one record.
func (l *evalLog) Write(r EvalRecord) error {
	records := []EvalRecord{r}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.f); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

// Close closes the underlying file.
func (l *evalLog) Close() error {
	return l.f.Close()
}
