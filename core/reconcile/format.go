package reconcile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format defines how a feed is checked, split into lines, and parsed.
// The generic Stream pipeline drives a Format; implementations only supply
// the feed-specific steps.
type Format interface {
	// Validate checks that the feed at path can be read before any pass starts.
	Validate(path string) error

	// ReadLines calls fn for every data line of r, with its 1-based line
	// number. The header and blank lines are never passed to fn.
	ReadLines(ctx context.Context, r io.Reader, fn func(lineNo int, line string) error) error

	// Parse turns one data line into a record. A line that cannot yield a
	// usable record returns a *ParseError.
	Parse(lineNo int, line string) (TransactionRecord, error)
}

const maxLineSize = 1 << 20

// DelimitedFormat is a header-first, delimiter separated text feed with a
// minimum number of positional fields.
type DelimitedFormat struct {
	Delimiter string
	MinFields int
}

// NewDelimitedFormat returns the network extract format.
func NewDelimitedFormat(delimiter string, minFields int) *DelimitedFormat {
	if delimiter == "" {
		delimiter = ","
	}
	if minFields <= 0 {
		minFields = FieldCount
	}
	return &DelimitedFormat{Delimiter: delimiter, MinFields: minFields}
}

// Validate implements Format.
func (f *DelimitedFormat) Validate(path string) error {
	if strings.TrimSpace(path) == "" {
		return &ConfigurationError{Option: "file_path", Message: "is required"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &ConfigurationError{Option: "file_path", Message: "cannot stat " + path, Err: err}
	}
	if info.IsDir() {
		return &ConfigurationError{Option: "file_path", Message: path + " is a directory"}
	}
	fh, err := os.Open(path)
	if err != nil {
		return &ConfigurationError{Option: "file_path", Message: "cannot open " + path, Err: err}
	}
	return fh.Close()
}

// ReadLines implements Format. A line longer than maxLineSize is passed on
// cut to maxLineSize+1 bytes so Parse rejects it; the rest of it is skipped.
func (f *DelimitedFormat) ReadLines(ctx context.Context, r io.Reader, fn func(lineNo int, line string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 0, 4*1024)

	lineNo := 0
	for {
		chunk, err := br.ReadSlice('\n')
		if room := maxLineSize + 1 - len(buf); room > 0 {
			buf = append(buf, chunk[:min(len(chunk), room)]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read line %d: %w", lineNo+1, err)
		}
		if errors.Is(err, io.EOF) && len(buf) == 0 {
			return nil
		}

		lineNo++
		line := strings.TrimRight(string(buf), "\r\n")
		buf = buf[:0]

		if lineNo > 1 && strings.TrimSpace(line) != "" {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if ferr := fn(lineNo, line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// Parse implements Format. Lines with at least MinFields fields are padded
// to the full extract width.
func (f *DelimitedFormat) Parse(lineNo int, line string) (TransactionRecord, error) {
	if len(line) > maxLineSize {
		return TransactionRecord{}, &ParseError{Line: lineNo, Reason: fmt.Sprintf("line exceeds %d bytes", maxLineSize)}
	}
	fields := strings.Split(line, f.Delimiter)
	if len(fields) < f.MinFields || len(fields) <= ColTransactionID {
		return TransactionRecord{}, &ParseError{Line: lineNo, Fields: len(fields), Reason: "too few fields"}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[ColTransactionID] == "" {
		return TransactionRecord{}, &ParseError{Line: lineNo, Fields: len(fields), Reason: "missing transaction id"}
	}
	if len(fields) < FieldCount {
		fields = append(fields, make([]string, FieldCount-len(fields))...)
	}
	return RecordFromFields(fields), nil
}

// FormatHeader returns the header line for the network extract.
func FormatHeader(delimiter string) string {
	return strings.Join(ColumnNames[:], delimiter)
}

// FormatLine renders a record as one extract line.
func FormatLine(r TransactionRecord, delimiter string) string {
	return strings.Join(r.Fields(), delimiter)
}
