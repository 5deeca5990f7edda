package movietpl

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/deepch/elstcheck/format/mp4/editlist"
	"github.com/deepch/elstcheck/format/mp4/mp4io"
	"github.com/google/go-cmp/cmp"
)

func TestSynthesizeLayout(t *testing.T) {
	ts, err := SynthesizeTemplates()
	if err != nil {
		t.Fatal(err)
	}
	for name, tpl := range map[string]*Template{"non-frag": ts.NonFrag, "frag": ts.Frag, "frag-no-mehd": ts.FragNoMehd} {
		offset, size := tpl.SpliceRegion()
		if offset != 248 || size != SpliceSize {
			t.Errorf("%s: splice region %d+%d", name, offset, size)
		}
		parsed, err := Parse(tpl.Raw().Bytes())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if o, s := parsed.SpliceRegion(); o != offset || s != size {
			t.Errorf("%s: parsed splice region %d+%d", name, o, s)
		}
	}
}

func TestSynthesizeFragments(t *testing.T) {
	ts, err := SynthesizeTemplates()
	if err != nil {
		t.Fatal(err)
	}
	count := func(tpl *Template) (moofs int, mehd bool) {
		atoms, err := mp4io.ReadFileAtoms(tpl.Raw().Reader())
		if err != nil {
			t.Fatal(err)
		}
		for _, atom := range atoms {
			switch atom.Tag() {
			case mp4io.MOOF:
				moofs++
			case mp4io.MOOV:
				mehd = mp4io.FindChildren(atom, mp4io.MEHD) != nil
			}
		}
		return
	}
	if moofs, mehd := count(ts.NonFrag); moofs != 0 || mehd {
		t.Errorf("non-frag: %d moof, mehd=%v", moofs, mehd)
	}
	if moofs, mehd := count(ts.Frag); moofs != 2 || !mehd {
		t.Errorf("frag: %d moof, mehd=%v", moofs, mehd)
	}
	if moofs, mehd := count(ts.FragNoMehd); moofs != 2 || mehd {
		t.Errorf("frag-no-mehd: %d moof, mehd=%v", moofs, mehd)
	}
}

func TestSplice(t *testing.T) {
	tpl, err := Synthesize(Options{})
	if err != nil {
		t.Fatal(err)
	}
	b := editlist.NewBuilder(0)
	b.Add(60, 100, 1, 0)
	block, err := b.Build(SpliceSize)
	if err != nil {
		t.Fatal(err)
	}
	vec, err := tpl.Splice(block)
	if err != nil {
		t.Fatal(err)
	}
	if vec.Len() != tpl.Len() {
		t.Errorf("spliced length %d, template %d", vec.Len(), tpl.Len())
	}
	if &vec[0][0] != &tpl.data[0] || &vec[2][0] != &tpl.data[248+SpliceSize] {
		t.Error("prefix or suffix was copied")
	}

	atoms, err := mp4io.ReadFileAtoms(vec.Reader())
	if err != nil {
		t.Fatal(err)
	}
	var moov mp4io.Atom
	for _, atom := range atoms {
		if atom.Tag() == mp4io.MOOV {
			moov = atom
		}
	}
	elst, ok := mp4io.FindChildren(moov, mp4io.ELST).(*mp4io.EditList)
	if !ok {
		t.Fatal("no elst in spliced movie")
	}
	if diff := cmp.Diff(b.Entries(), elst.Entries); diff != "" {
		t.Errorf("entries differ (-want +got):\n%s", diff)
	}
	if trak := moov.(*mp4io.Movie).Tracks[0]; trak.Free == nil || trak.Media == nil {
		t.Error("padding free box or mdia lost")
	}

	if _, err := tpl.Splice(block[:64]); !errors.Is(err, ErrSpliceSize) {
		t.Errorf("expected ErrSpliceSize, got %v", err)
	}
}

func TestVectorIO(t *testing.T) {
	vec := Vector{{1, 2, 3}, {4, 5, 6, 7, 8, 9}, {10, 11, 12, 13}}
	if vec.Len() != 13 {
		t.Fatalf("length %d", vec.Len())
	}
	p := make([]byte, 5)
	n, err := vec.ReadAt(p, 2)
	if err != nil || n != 5 || !bytes.Equal(p, []byte{3, 4, 5, 6, 7}) {
		t.Errorf("ReadAt(2): %d %v %v", n, p, err)
	}
	n, err = vec.ReadAt(p, 10)
	if err != io.EOF || n != 3 || !bytes.Equal(p[:3], []byte{11, 12, 13}) {
		t.Errorf("ReadAt(10): %d %v %v", n, p[:n], err)
	}
	all, err := io.ReadAll(vec.Reader())
	if err != nil || !bytes.Equal(all, vec.Bytes()) {
		t.Errorf("reader returned %v %v", all, err)
	}

	dir := t.TempDir()
	path, err := vec.WriteFile(dir, "elstcheck-")
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := Load(path)
	if err == nil || tpl != nil {
		t.Error("expected load of a non-movie to fail")
	}
}

func TestLoadTemplates(t *testing.T) {
	ts, err := SynthesizeTemplates()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := ts.WriteFiles(dir); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadTemplates(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(loaded.Frag.data, ts.Frag.data) {
		t.Error("frag template changed on disk")
	}
	if _, err := LoadTemplates(t.TempDir()); err == nil {
		t.Error("expected error for empty directory")
	}
}
