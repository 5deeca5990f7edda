package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/deepch/elstcheck/demux/vdkmp4"
	"github.com/deepch/elstcheck/format/mp4/movietpl"
	"github.com/deepch/elstcheck/format/mp4/mp4io"
	"github.com/deepch/elstcheck/scenario"
)

var errFailed = errors.New("some cases failed")

// selectCases keeps the cases whose name contains any of the filters.
func selectCases(filters []string) []scenario.Case {
	all := scenario.Cases()
	if len(filters) == 0 {
		return all
	}
	var cases []scenario.Case
	for _, c := range all {
		for _, f := range filters {
			if strings.Contains(c.Name(), f) {
				cases = append(cases, c)
				break
			}
		}
	}
	return cases
}

type quirkFlags struct {
	noDummy, noSpurious, noEmpty bool
}

func (q *quirkFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&q.noDummy, "no-dummy-segment", false, "do not expect a default segment first in push modes")
	fs.BoolVar(&q.noSpurious, "no-spurious-frame", false, "do not expect the out-of-edit frame after an edit")
	fs.BoolVar(&q.noEmpty, "no-empty-edit-segments", false, "do not expect segments for empty edits")
}

func (q *quirkFlags) quirks() scenario.Quirks {
	return scenario.Quirks{
		DummySegment:       !q.noDummy,
		SpuriousExtraFrame: !q.noSpurious,
		EmptyEditSegments:  !q.noEmpty,
	}
}

func loadTemplates(dir string) (*movietpl.Templates, error) {
	if dir == "" {
		return movietpl.SynthesizeTemplates()
	}
	return movietpl.LoadTemplates(dir)
}

var listCmd = &cobra.Command{
	Use:   "list [filter...]",
	Short: "List the cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range selectCases(args) {
			mark := ""
			if c.KnownBroken {
				mark = " [skip]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", c.Name(), mark)
		}
		return nil
	},
}

var runOpts struct {
	quirkFlags
	includeBroken bool
	templates     string
	keep          bool
}

var runCmd = &cobra.Command{
	Use:   "run [filter...]",
	Short: "Run cases against the vdk mp4 demuxer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := loadTemplates(runOpts.templates)
		if err != nil {
			return err
		}
		runID := uuid.NewString()
		dir := filepath.Join(os.TempDir(), "elstcheck-"+runID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		// only removed when nothing was kept in it
		defer os.Remove(dir)
		if err := checkFreeSpace(dir); err != nil {
			return err
		}
		scenario.Logger().Debugf("run %s in %s", runID, dir)

		r := &scenario.Runner{
			Demuxer:    vdkmp4.New(),
			Templates:  ts,
			Quirks:     runOpts.quirks(),
			TempDir:    dir,
			KeepFailed: runOpts.keep,
		}
		out := cmd.OutOrStdout()
		var passed, failed, skipped int
		for _, res := range r.RunAll(selectCases(args), runOpts.includeBroken) {
			switch {
			case res.Skipped:
				skipped++
				fmt.Fprintf(out, "SKIP %s\n", res.Case.Name())
			case res.Err != nil:
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", res.Case.Name(), res.Err)
				if res.Path != "" {
					fmt.Fprintf(out, "     vector kept at %s\n", res.Path)
				}
			default:
				passed++
				fmt.Fprintf(out, "ok   %s (%s)\n", res.Case.Name(), res.Elapsed)
			}
		}
		fmt.Fprintf(out, "%d passed, %d failed, %d skipped\n", passed, failed, skipped)
		if failed > 0 {
			return errFailed
		}
		return nil
	},
}

var genOpts struct {
	quirkFlags
	out       string
	templates string
}

var genCmd = &cobra.Command{
	Use:   "gen [filter...]",
	Short: "Write test vectors and their expected events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := loadTemplates(genOpts.templates)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(genOpts.out, 0o755); err != nil {
			return err
		}
		if err := checkFreeSpace(genOpts.out); err != nil {
			return err
		}
		for _, c := range selectCases(args) {
			vec, expected, err := c.Build(ts, genOpts.quirks())
			if err != nil {
				return err
			}
			base := filepath.Join(genOpts.out, c.Name())
			f, err := os.Create(base + ".mp4")
			if err != nil {
				return err
			}
			_, err = vec.WriteTo(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(base+".expected.txt", []byte(expected.String()), 0o644); err != nil {
				return err
			}
			scenario.Logger().Debugf("wrote %s", base)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the atom tree of a movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		atoms, err := mp4io.ReadFileAtoms(f)
		if err != nil {
			return err
		}
		for _, atom := range atoms {
			mp4io.FprintAtom(cmd.OutOrStdout(), atom)
		}
		return nil
	},
}

var templatesOut string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Write the synthesized movie templates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ts, err := movietpl.SynthesizeTemplates()
		if err != nil {
			return err
		}
		return ts.WriteFiles(templatesOut)
	},
}

func init() {
	fs := runCmd.Flags()
	runOpts.register(fs)
	fs.BoolVar(&runOpts.includeBroken, "include-broken", false, "also run cases known to fail")
	fs.StringVar(&runOpts.templates, "templates", "", "load templates from this directory instead of synthesizing them")
	fs.BoolVar(&runOpts.keep, "keep", false, "keep the vector files of failed cases")

	fs = genCmd.Flags()
	genOpts.register(fs)
	fs.StringVar(&genOpts.out, "out", ".", "output directory")
	fs.StringVar(&genOpts.templates, "templates", "", "load templates from this directory instead of synthesizing them")

	templatesCmd.Flags().StringVar(&templatesOut, "out", ".", "output directory")
}
