// Package flatfile reads and writes the comma separated catalog format:
//
//	ID,Name,Quantity,Price,Attr1,Attr2
//
// The first character of ID selects the product category. Fields are trimmed
// and never escaped, so names containing commas cannot be represented.
package flatfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
	"github.com/Skotchmaster/kolshi/pkg/logging"
)

const (
	fieldCount = 6

	// MaxLineBytes bounds a single catalog record.
	MaxLineBytes       = 64 << 10
	skippedPrefixBytes = 64
)

var ErrMalformedRecord = errors.New("malformed record")

// LineError describes a catalog line that was skipped.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Report is the outcome of loading a catalog.
type Report struct {
	Products []*domain.Product
	Skipped  []*LineError
	// Missing is set when the catalog file does not exist.
	Missing bool
}

func (r *Report) MalformedCount() int {
	return r.count(ErrMalformedRecord)
}

func (r *Report) UnknownPrefixCount() int {
	return r.count(domain.ErrUnknownCategoryPrefix)
}

func (r *Report) count(target error) int {
	n := 0
	for _, s := range r.Skipped {
		if errors.Is(s, target) {
			n++
		}
	}
	return n
}

// Parse reads catalog records from r. Bad lines, including lines longer than
// MaxLineBytes, are skipped and reported; only a read failure is returned as
// an error.
func Parse(r io.Reader) (*Report, error) {
	report := &Report{}
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		text, tooLong, err := readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return report, errors.Wrap(err, "read catalog")
		}
		atEOF := err != nil
		if atEOF && text == "" && !tooLong {
			break
		}
		lineNo++

		switch {
		case tooLong:
			report.Skipped = append(report.Skipped, &LineError{
				Line: lineNo,
				Text: text,
				Err:  errors.Wrapf(ErrMalformedRecord, "line longer than %d bytes", MaxLineBytes),
			})
		case strings.TrimSpace(text) == "":
		default:
			p, err := ParseLine(text)
			if err != nil {
				report.Skipped = append(report.Skipped, &LineError{Line: lineNo, Text: text, Err: err})
			} else {
				report.Products = append(report.Products, p)
			}
		}

		if atEOF {
			break
		}
	}
	return report, nil
}

// readLine returns the next line without its terminator. For a line over
// MaxLineBytes it returns only a short prefix and drains the rest.
func readLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes {
				tooLong = true
				buf = append(buf, chunk...)
				if len(buf) > skippedPrefixBytes {
					buf = buf[:skippedPrefixBytes]
				}
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return strings.TrimRight(string(buf), "\r\n"), tooLong, err
	}
}

// ParseLine converts one record into a product.
func ParseLine(line string) (*domain.Product, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	category, err := domain.CategoryFromPrefix(fields[0])
	if err != nil {
		return nil, err
	}
	if len(fields) != fieldCount {
		return nil, errors.Wrapf(ErrMalformedRecord, "expected %d fields, got %d", fieldCount, len(fields))
	}

	qty, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "quantity %q", fields[2])
	}
	price, err := decimal.NewFromString(fields[3])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "price %q", fields[3])
	}

	var details domain.Details
	switch category {
	case domain.Electronics:
		months, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedRecord, "warranty %q", fields[5])
		}
		details = domain.ElectronicsDetails{Brand: fields[4], WarrantyMonths: months}
	case domain.Clothing:
		details = domain.ClothingDetails{Size: fields[4], Color: fields[5]}
	case domain.Books:
		details = domain.BookDetails{Author: fields[4], Genre: fields[5]}
	case domain.HomeGarden:
		details = domain.HomeGardenDetails{Material: fields[4], Room: fields[5]}
	}

	p, err := domain.NewProduct(fields[0], fields[1], qty, price, details)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "%v", err)
	}
	return p, nil
}

// Load parses the catalog at path. A missing file yields an empty report.
func Load(ctx context.Context, path string) (*Report, error) {
	l := logging.FromContext(ctx).With("component", "catalog.load", "path", path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Warn("catalog_missing", "reason", "file not found, starting with an empty catalog")
			return &Report{Missing: true}, nil
		}
		return nil, errors.Wrap(err, "open catalog")
	}
	defer f.Close()

	report, err := Parse(f)
	if err != nil {
		return nil, err
	}

	for _, s := range report.Skipped {
		reason := "malformed record"
		if errors.Is(s, domain.ErrUnknownCategoryPrefix) {
			reason = "unknown category prefix"
		}
		l.Warn("catalog_line_skipped", "line", s.Line, "reason", reason, "error", s.Err.Error())
	}
	l.Info("catalog_loaded",
		"products", len(report.Products),
		"malformed", report.MalformedCount(),
		"unknown_prefix", report.UnknownPrefixCount(),
	)
	return report, nil
}

// Format renders p as a single catalog record without a trailing newline.
func Format(p *domain.Product) string {
	a1, a2 := p.Details.Attributes()
	return strings.Join([]string{
		p.ID,
		p.Name,
		strconv.Itoa(p.Quantity()),
		p.Price.String(),
		a1,
		a2,
	}, ",")
}

func Serialize(w io.Writer, products []*domain.Product) error {
	bw := bufio.NewWriter(w)
	for _, p := range products {
		if _, err := bw.WriteString(Format(p) + "\n"); err != nil {
			return errors.Wrap(err, "write catalog")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flush catalog")
	}
	return nil
}
