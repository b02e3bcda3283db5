package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPutGet(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key("input", "rule")
	in := &Entry{
		InputDigest: Sum([]byte("il text")),
		RuleDigest:  "two-stage:abc",
		Counts:      map[string]int{"ldstr": 2, "resource": 1},
		Total:       3,
	}
	if err := s.Put(key, in); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.InputDigest != in.InputDigest || got.Total != 3 || got.Counts["resource"] != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if _, ok, _ := s.Get(Key("other")); ok {
		t.Errorf("missing key reported as hit")
	}
}

func TestKeySeparatesParts(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatalf("key parts must not run together")
	}
	if Key("a") != Key("a") {
		t.Fatalf("key must be deterministic")
	}
}

func TestFresh(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "app.patched.il")
	if err := os.WriteFile(out, []byte("patched"), 0o600); err != nil {
		t.Fatal(err)
	}
	d, err := SumFile(out)
	if err != nil {
		t.Fatal(err)
	}
	e := &Entry{Written: true, Outputs: map[string]Digest{out: d}}
	if !e.Fresh() {
		t.Fatalf("untouched output must be fresh")
	}
	if err := os.WriteFile(out, []byte("edited"), 0o600); err != nil {
		t.Fatal(err)
	}
	if e.Fresh() {
		t.Errorf("edited output must be stale")
	}
	if !(&Entry{}).Fresh() {
		t.Errorf("run without output is always fresh")
	}
	if (*Entry)(nil).Fresh() {
		t.Errorf("nil entry must not be fresh")
	}
}

func TestClear(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b"} {
		if err := s.Put(Key(k), &Entry{}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Clear()
	if err != nil || n != 2 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
	if _, ok, _ := s.Get(Key("a")); ok {
		t.Errorf("entry survived Clear")
	}
	if n, err := s.Clear(); err != nil || n != 0 {
		t.Errorf("second Clear() = %d, %v", n, err)
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if err := s.Put(Key("a"), &Entry{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get(Key("a")); ok || err != nil {
		t.Fatalf("nil store Get = %v, %v", ok, err)
	}
}
