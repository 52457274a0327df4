package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpstab/internal/expr"
	"fpstab/internal/output"
	"fpstab/internal/result"
	"fpstab/internal/slogutil"
)

func writeJobFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleJobs = `
[defaults]
module = "Geometry"
type = "Double -> Double"

[[job]]
expr = "sqrt(x + 1) - sqrt(x)"
function = "dist"
comments = "hot loop"

[[job]]
expr = "x + 1"
module = "Util"

[[job]]
expr = "exp(x) - 1"

[[job]]
expr = "sqrt(x +"
`

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(writeJobFile(t, sampleJobs))
	require.NoError(t, err)
	require.Len(t, f.Jobs, 4)

	dbg := f.Jobs[0].DbgInfo(f.Defaults)
	assert.Equal(t, result.DbgInfo{
		Comments:     "hot loop",
		ModuleName:   "Geometry",
		FunctionName: "dist",
		FunctionType: "Double -> Double",
	}, dbg)

	assert.Equal(t, "Util", f.Jobs[1].DbgInfo(f.Defaults).ModuleName)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "[[job]\nexpr = 1", "failed to parse job file"},
		{"unknown key", "[[job]]\nexpr = \"x\"\nfunc = \"f\"\n", "unknown keys in job file: job.func"},
		{"no jobs", "[defaults]\nmodule = \"M\"\n", "no [[job]] entries"},
		{"empty expr", "[[job]]\nexpr = \"  \"\n", "job 1: expr is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeJobFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

// fakeStabilizer rewrites "sqrt(x + 1) - sqrt(x)" and leaves other inputs
// unchanged with unknown metrics.
type fakeStabilizer struct {
	mu       sync.Mutex
	seen     []result.DbgInfo
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeStabilizer) StabilizeSource(_ context.Context, src string, dbg result.DbgInfo) (result.StabilizerResult[expr.Expr], error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.seen = append(f.seen, dbg)
	f.mu.Unlock()

	e, err := expr.Parse(src)
	if err != nil {
		return result.StabilizerResult[expr.Expr]{}, err
	}
	switch src {
	case "sqrt(x + 1) - sqrt(x)":
		return result.StabilizerResult[expr.Expr]{
			CmdIn:  e,
			CmdOut: expr.MustParse("1 / (sqrt(x + 1) + sqrt(x))"),
			ErrIn:  29.5,
			ErrOut: 0.25,
		}, nil
	case "x + 1":
		return result.StabilizerResult[expr.Expr]{CmdIn: e, CmdOut: e}, nil
	default:
		return result.Fallback(e), nil
	}
}

func TestRunnerRun(t *testing.T) {
	f, err := LoadFile(writeJobFile(t, sampleJobs))
	require.NoError(t, err)

	stab := &fakeStabilizer{}
	report, err := NewRunner(stab, 2, slogutil.NewDiscardLogger()).Run(context.Background(), "run-1", f)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Items, 4)
	for i, it := range report.Items {
		assert.Equal(t, i+1, it.Index, "items keep job order")
	}

	first := report.Items[0]
	assert.Equal(t, StatusImproved, first.Status)
	assert.Equal(t, "1 / (sqrt(x + 1) + sqrt(x))", first.Output)
	require.NotNil(t, first.ErrIn)
	assert.Equal(t, output.Bits(29.5), *first.ErrIn)
	assert.Equal(t, "dist", first.Function)

	assert.Equal(t, StatusUnchanged, report.Items[1].Status)

	assert.Equal(t, StatusUnknown, report.Items[2].Status)
	require.NotNil(t, report.Items[2].ErrIn)
	assert.True(t, report.Items[2].ErrIn.Unknown())
	assert.Nil(t, report.Items[3].ErrIn)

	assert.Equal(t, StatusInvalid, report.Items[3].Status)
	assert.NotEmpty(t, report.Items[3].Error)

	assert.Equal(t, Summary{Total: 4, Improved: 1, Unchanged: 1, Unknown: 1, Invalid: 1}, report.Summary)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.LessOrEqual(t, stab.peak.Load(), int32(2))
	assert.Len(t, stab.seen, 4)
}

func TestRunnerCancelled(t *testing.T) {
	f, err := LoadFile(writeJobFile(t, sampleJobs))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(&fakeStabilizer{}, 1, slogutil.NewDiscardLogger()).Run(ctx, "run-2", f)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, report)
	assert.Empty(t, report.Items)
}

func TestNewRunnerClampsParallelism(t *testing.T) {
	r := NewRunner(&fakeStabilizer{}, 0, slogutil.NewDiscardLogger())
	assert.Equal(t, 1, r.parallelism)
}

func TestReportRenderText(t *testing.T) {
	in, out := output.Bits(29.5), output.Bits(0.25)
	rep := &Report{
		Items: []Item{
			{Index: 1, Input: "a", Output: "b", ErrIn: &in, ErrOut: &out, Status: StatusImproved},
			{Index: 2, Input: "c", Status: StatusInvalid, Error: "unexpected end of input"},
		},
	}
	rep.Summary = summarize(rep.Items)

	var buf bytes.Buffer
	require.NoError(t, rep.RenderText(&buf))

	text := buf.String()
	assert.Contains(t, text, "improved")
	assert.Contains(t, text, "29.5")
	assert.Contains(t, text, "unexpected end of input")
	assert.True(t, strings.HasSuffix(text, "2 jobs: 1 improved, 0 unchanged, 0 unknown, 1 invalid\n"))
}
