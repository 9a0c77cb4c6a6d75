package main

import (
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/vasd85/voxenote/internal/pipeline"
	"github.com/vasd85/voxenote/internal/services"
)

// renderer prints pipeline events as they arrive. On a terminal the file
// currently being worked on is shown as a spinner line that is replaced by
// the outcome; otherwise every event becomes a plain line. Stage summaries
// are gathered and printed as a table once the sequence ends.
type renderer struct {
	out         io.Writer
	interactive bool

	bar       *progressbar.ProgressBar
	summaries [][]string
	errors    int
	fatal     error
}

func newRenderer(out io.Writer) *renderer {
	interactive := false
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &renderer{out: out, interactive: interactive}
}

// consume drains events and reports how the batch went. A fatal error, one
// the whole run cannot recover from, is returned as-is; per-file errors are
// folded into a single count-based result.
func (r *renderer) consume(events iter.Seq[pipeline.Event]) error {
	for event := range events {
		r.handle(event)
	}
	r.stopSpinner()
	r.flushSummaries()
	if r.fatal != nil {
		return r.fatal
	}
	return runErr(r.errors)
}

func (r *renderer) handle(event pipeline.Event) {
	switch event.Status {
	case pipeline.StatusProcessing:
		if r.interactive {
			r.startSpinner(fmt.Sprintf("[%s] %s", event.Stage, event.File))
		} else {
			fmt.Fprintln(r.out, event.String())
		}
	case pipeline.StatusSummary:
		r.stopSpinner()
		r.summaries = append(r.summaries, []string{string(event.Stage), event.Message})
	case pipeline.StatusError:
		if event.Err != nil && services.IsFatal(event.Err) && r.fatal == nil {
			r.fatal = event.Err
		} else {
			r.errors++
		}
		r.stopSpinner()
		fmt.Fprintln(r.out, event.String())
	default:
		r.stopSpinner()
		fmt.Fprintln(r.out, event.String())
	}
}

func (r *renderer) startSpinner(description string) {
	r.stopSpinner()
	r.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *renderer) stopSpinner() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
}

func (r *renderer) flushSummaries() {
	if len(r.summaries) == 0 {
		return
	}
	fmt.Fprintln(r.out, renderTable([]string{"Stage", "Summary"}, r.summaries))
	r.summaries = nil
}

// runErr converts a per-file error count into a command result.
func runErr(errors int) error {
	if errors == 0 {
		return nil
	}
	if errors == 1 {
		return fmt.Errorf("1 file failed; see the log for details")
	}
	return fmt.Errorf("%d files failed; see the log for details", errors)
}
