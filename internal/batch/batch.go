package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"fpstab/internal/expr"
	"fpstab/internal/output"
	"fpstab/internal/result"
)

// Stabilizer is the part of the pipeline a batch needs.
type Stabilizer interface {
	StabilizeSource(ctx context.Context, src string, dbg result.DbgInfo) (result.StabilizerResult[expr.Expr], error)
}

// Item statuses
const (
	StatusImproved  = "improved"
	StatusUnchanged = "unchanged"
	StatusUnknown   = "unknown"
	StatusInvalid   = "invalid"
)

// Item is the outcome of one job, in job-file order.
type Item struct {
	Index    int          `json:"index" yaml:"index"`
	Input    string       `json:"input" yaml:"input"`
	Output   string       `json:"output,omitempty" yaml:"output,omitempty"`
	ErrIn    *output.Bits `json:"errin" yaml:"errin"`
	ErrOut   *output.Bits `json:"errout" yaml:"errout"`
	Status   string       `json:"status" yaml:"status"`
	Function string       `json:"function,omitempty" yaml:"function,omitempty"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary counts items by status
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Improved  int `json:"improved" yaml:"improved"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Unknown   int `json:"unknown" yaml:"unknown"`
	Invalid   int `json:"invalid" yaml:"invalid"`
}

// Report is the result of a batch run
type Report struct {
	RunID      string    `json:"runId" yaml:"runId"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`
	Summary    Summary   `json:"summary" yaml:"summary"`
	Items      []Item    `json:"items" yaml:"items"`
}

// Runner executes job files with bounded parallelism
type Runner struct {
	stabilizer  Stabilizer
	parallelism int
	logger      *slog.Logger
}

// NewRunner creates a Runner. parallelism below 1 is treated as 1.
func NewRunner(s Stabilizer, parallelism int, logger *slog.Logger) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{stabilizer: s, parallelism: parallelism, logger: logger.With("component", "batch")}
}

// Run stabilizes every job. Individual failures are reported per item; the
// returned error is only the context's, in which case the report holds the
// items that finished.
func (r *Runner) Run(ctx context.Context, runID string, f *File) (*Report, error) {
	report := &Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Items:     make([]Item, len(f.Jobs)),
	}
	done := make([]bool, len(f.Jobs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for i, job := range f.Jobs {
		i, job := i, job
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			report.Items[i] = r.runJob(gCtx, i, job, f.Defaults)
			done[i] = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		finished := report.Items[:0]
		for i, ok := range done {
			if ok {
				finished = append(finished, report.Items[i])
			}
		}
		report.Items = finished
	}

	report.FinishedAt = time.Now().UTC()
	report.Summary = summarize(report.Items)
	r.logger.Info("Batch finished",
		"jobs", len(f.Jobs),
		"improved", report.Summary.Improved,
		"unknown", report.Summary.Unknown,
		"invalid", report.Summary.Invalid,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, err
}

func (r *Runner) runJob(ctx context.Context, i int, job Job, defaults result.DbgInfo) Item {
	dbg := job.DbgInfo(defaults)
	item := Item{Index: i + 1, Input: job.Expr, Function: dbg.FunctionName}

	res, err := r.stabilizer.StabilizeSource(ctx, job.Expr, dbg)
	if err != nil {
		r.logger.Warn("Skipping job", "index", i+1, "error", err.Error())
		item.Status = StatusInvalid
		item.Error = err.Error()
		return item
	}

	item.Output = res.CmdOut.String()
	item.ErrIn = output.Metric(res.ErrIn)
	item.ErrOut = output.Metric(res.ErrOut)
	switch {
	case res.Unknown():
		item.Status = StatusUnknown
	case res.Improved():
		item.Status = StatusImproved
	default:
		item.Status = StatusUnchanged
	}
	return item
}

func summarize(items []Item) Summary {
	s := Summary{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case StatusImproved:
			s.Improved++
		case StatusUnchanged:
			s.Unchanged++
		case StatusUnknown:
			s.Unknown++
		case StatusInvalid:
			s.Invalid++
		}
	}
	return s
}

// RenderText prints one line per item and the summary.
func (rep *Report) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tERRIN\tERROUT\tOUTPUT")
	for _, it := range rep.Items {
		out := it.Output
		if it.Status == StatusInvalid {
			out = it.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.Index, it.Status, metricText(it.ErrIn), metricText(it.ErrOut), out)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d jobs: %d improved, %d unchanged, %d unknown, %d invalid\n",
		rep.Summary.Total, rep.Summary.Improved, rep.Summary.Unchanged, rep.Summary.Unknown, rep.Summary.Invalid)
	return err
}

func metricText(m *output.Bits) string {
	if m == nil {
		return "-"
	}
	return m.String()
}
