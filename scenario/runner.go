package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/deepch/elstcheck/capture"
	"github.com/deepch/elstcheck/demux"
	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/format/mp4/movietpl"
)

// Runner materializes cases, feeds them to a demuxer and compares what it
// emits with the expected events.
type Runner struct {
	Demuxer   demux.Demuxer
	Templates *movietpl.Templates
	Quirks    Quirks
	// TempDir holds the vector files; empty means os.TempDir().
	TempDir string
	// KeepFailed leaves the vector file of a failed case on disk.
	KeepFailed bool
	// MaxEvents caps the events captured per case; 0 means unbounded.
	MaxEvents int
	Logger    LoggerIF
}

func (r *Runner) logger() LoggerIF {
	if r.Logger != nil {
		return r.Logger
	}
	return Logger()
}

// Result is the outcome of one case.
type Result struct {
	Case    Case
	Err     error
	Skipped bool
	Elapsed time.Duration
	// Path of the kept vector file, if any.
	Path string
}

// Run runs one case. A *eventlog.MismatchError in the chain means the
// demuxer ran to the end but emitted the wrong events.
func (r *Runner) Run(c Case) error {
	_, err := r.run(c)
	return err
}

func (r *Runner) run(c Case) (kept string, err error) {
	vec, expected, err := c.Build(r.Templates, r.Quirks)
	if err != nil {
		return "", err
	}
	path, err := vec.WriteFile(r.TempDir, "elstcheck-")
	if err != nil {
		return "", fmt.Errorf("scenario: %s: %w", c.Name(), err)
	}
	r.logger().Debugf("%s: vector %s (%d bytes)", c.Name(), path, vec.Len())
	defer func() {
		if err != nil && r.KeepFailed {
			kept = path
			r.logger().Infof("%s: kept %s", c.Name(), path)
			return
		}
		if rmErr := os.Remove(path); rmErr != nil {
			r.logger().Warnf("%s: %v", c.Name(), rmErr)
		}
	}()

	actual := &eventlog.Log{Limit: r.MaxEvents}
	if err = r.Demuxer.Demux(path, c.Delivery, capture.NewWriter(actual)); err != nil {
		return "", fmt.Errorf("scenario: %s: demuxer failed: %w", c.Name(), err)
	}
	for _, line := range Timeline(actual) {
		r.logger().Debugf("%s: %s", c.Name(), line)
	}
	if err = eventlog.Diff(actual, expected); err != nil {
		return "", fmt.Errorf("scenario: %s: %w", c.Name(), err)
	}
	return "", nil
}

// RunAll runs the cases in order. Known broken cases are skipped unless
// includeBroken is set.
func (r *Runner) RunAll(cases []Case, includeBroken bool) []Result {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		res := Result{Case: c}
		if c.KnownBroken && !includeBroken {
			res.Skipped = true
			r.logger().Debugf("%s: skipped, known broken", c.Name())
			results = append(results, res)
			continue
		}
		start := time.Now()
		res.Path, res.Err = r.run(c)
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			r.logger().Errorf("%s: %v", c.Name(), res.Err)
		} else {
			r.logger().Debugf("%s: ok in %s", c.Name(), res.Elapsed)
		}
		results = append(results, res)
	}
	return results
}
