package feedback

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/Skotchmaster/kolshi/pkg/logging"
)

const (
	separator       = "====================================="
	timestampLayout = "2006-01-02 15:04:05"
)

var ErrValidation = errors.New("validation")

type Rating string

const (
	RatingExcellent Rating = "⭐ Excellent"
	RatingGood      Rating = "⭐⭐ Good"
	RatingAverage   Rating = "⭐⭐⭐ Average"
	RatingPoor      Rating = "⭐⭐⭐⭐ Poor"
)

var Ratings = []Rating{RatingExcellent, RatingGood, RatingAverage, RatingPoor}

func (r Rating) Valid() bool {
	for _, v := range Ratings {
		if r == v {
			return true
		}
	}
	return false
}

type Entry struct {
	Email  string    `json:"email"`
	Rating Rating    `json:"rating"`
	Text   string    `json:"feedback"`
	At     time.Time `json:"-"`
}

func (e *Entry) Normalize() {
	e.Email = strings.TrimSpace(e.Email)
	e.Text = strings.TrimSpace(e.Text)
}

func (e Entry) Validate() error {
	switch {
	case e.Email == "":
		return errors.Wrap(ErrValidation, "email required")
	case !strings.Contains(e.Email, "@"):
		return errors.Wrap(ErrValidation, "email must contain @")
	case e.Text == "":
		return errors.Wrap(ErrValidation, "feedback required")
	case !e.Rating.Valid():
		return errors.Wrapf(ErrValidation, "unknown rating %q", e.Rating)
	}
	return nil
}

// Format renders the block written for one submission.
func (e Entry) Format() string {
	var b strings.Builder
	fmt.Fprintln(&b, separator)
	fmt.Fprintf(&b, "Timestamp: %s\n", e.At.Format(timestampLayout))
	fmt.Fprintf(&b, "Email: %s\n", e.Email)
	fmt.Fprintf(&b, "Rating: %s\n", e.Rating)
	fmt.Fprintf(&b, "Feedback: %s\n", e.Text)
	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b)
	return b.String()
}

// Log appends feedback blocks to a file. It never truncates and never reads back.
type Log struct {
	Path string

	mu  sync.Mutex
	now func() time.Time
}

func NewLog(path string) *Log {
	return &Log{Path: path, now: time.Now}
}

func (l *Log) Append(ctx context.Context, e Entry) error {
	lg := logging.FromContext(ctx).With("svc", "feedback.append", "path", l.Path)

	e.Normalize()
	if err := e.Validate(); err != nil {
		lg.Warn("feedback_rejected", "error", err.Error())
		return err
	}
	if e.At.IsZero() {
		e.At = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		lg.Error("feedback_write_failed", "error", err.Error())
		return errors.Wrap(err, "open feedback log")
	}
	defer f.Close()

	if _, err := f.WriteString(e.Format()); err != nil {
		lg.Error("feedback_write_failed", "error", err.Error())
		return errors.Wrap(err, "write feedback")
	}
	lg.Info("feedback_saved", "rating", string(e.Rating))
	return nil
}
