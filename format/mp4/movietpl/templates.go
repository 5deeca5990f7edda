package movietpl

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	NonFragFile    = "ibpibp-non-frag-template.mp4"
	FragFile       = "ibpibp-frag-template.mp4"
	FragNoMehdFile = "ibpibp-frag-no-mehd-template.mp4"
)

// Templates is the set of movies every scenario is built from.
type Templates struct {
	NonFrag    *Template
	Frag       *Template
	FragNoMehd *Template
}

func (ts *Templates) each(fn func(name string, tpl **Template) error) error {
	for _, t := range []struct {
		name string
		tpl  **Template
	}{
		{NonFragFile, &ts.NonFrag},
		{FragFile, &ts.Frag},
		{FragNoMehdFile, &ts.FragNoMehd},
	} {
		if err := fn(t.name, t.tpl); err != nil {
			return err
		}
	}
	return nil
}

// LoadTemplates reads the three template files from dir.
func LoadTemplates(dir string) (*Templates, error) {
	ts := &Templates{}
	err := ts.each(func(name string, tpl **Template) (err error) {
		*tpl, err = Load(filepath.Join(dir, name))
		return
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func SynthesizeTemplates() (*Templates, error) {
	ts := &Templates{}
	opts := map[string]Options{
		NonFragFile:    {},
		FragFile:       {Fragmented: true},
		FragNoMehdFile: {Fragmented: true, NoMovieExtendsHeader: true},
	}
	err := ts.each(func(name string, tpl **Template) (err error) {
		if *tpl, err = Synthesize(opts[name]); err != nil {
			return fmt.Errorf("movietpl: synthesizing %s: %w", name, err)
		}
		return
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// WriteFiles stores the templates in dir under their canonical names.
func (ts *Templates) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("movietpl: %w", err)
	}
	return ts.each(func(name string, tpl **Template) error {
		if *tpl == nil {
			return fmt.Errorf("movietpl: %s missing", name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), (*tpl).data, 0o644); err != nil {
			return fmt.Errorf("movietpl: %w", err)
		}
		return nil
	})
}
