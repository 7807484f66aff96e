// Package billcsv reads payment-platform bill exports and writes mapped
// bill files.
package billcsv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

// Options controls how a bill file is decoded.
type Options struct {
	// SkipRows is the number of preamble lines before the header row.
	SkipRows int
	// Encoding is "utf-8" (default), "gb18030" or "gbk".
	Encoding string
}

// File is a decoded CSV: its header and one record per data row, in order.
type File struct {
	Header  []string
	Records []pipeline.Record
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return unicode.UTF8, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "gbk", "gb2312":
		return simplifiedchinese.GBK, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// ReadFile decodes the bill at path.
func ReadFile(path string, opts Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bill: %w", err)
	}
	defer f.Close()

	return Read(f, opts)
}

// Read decodes a bill from r. Cell values are trimmed; rows shorter than the
// header leave the missing columns absent.
func Read(r io.Reader, opts Options) (*File, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(transform.NewReader(r, enc.NewDecoder()))

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("bill ended within the %d preamble rows", opts.SkipRows)
			}
			return nil, fmt.Errorf("failed to skip preamble: %w", err)
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	file := &File{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if isBlank(row) {
			continue
		}

		record := make(pipeline.Record, len(header))
		for i, value := range row {
			if i < len(header) && header[i] != "" {
				record[header[i]] = strings.TrimSpace(value)
			}
		}
		file.Records = append(file.Records, record)
	}
	return file, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteFile writes header and records to path using the named encoding.
func WriteFile(path string, header []string, records []pipeline.Record, encodingName string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}

	if err := Write(f, header, records, encodingName); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV: %w", err)
	}
	return nil
}

// Write encodes header and records as CSV. Columns missing from a record
// are written empty.
func Write(w io.Writer, header []string, records []pipeline.Record, encodingName string) error {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return err
	}
	tw := transform.NewWriter(w, enc.NewEncoder())
	cw := csv.NewWriter(tw)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(header))
	for _, record := range records {
		for i, column := range header {
			row[i] = record[column]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to encode CSV: %w", err)
	}
	return nil
}

// WithColumns returns header extended by any of columns it lacks.
func WithColumns(header []string, columns ...string) []string {
	out := append([]string(nil), header...)
	for _, c := range columns {
		found := false
		for _, h := range out {
			if h == c {
				found = true
				break
			}
		}
		if !found {
			out = append(out, c)
		}
	}
	return out
}
