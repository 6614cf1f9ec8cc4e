package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "src.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func TestExtractBasic(t *testing.T) {
	files := map[string]string{
		"NSW/NSW_ADDRESS_DETAIL_psv.psv": "PID|NUMBER\nGANSW1|1\n",
		"NSW/NSW_LOCALITY_psv.psv":       "LOCALITY_PID|NAME\nLOC1|SYDNEY\n",
	}
	zipPath := buildZip(t, files)

	root := t.TempDir()
	targetDir := filepath.Join(root, "extracted")

	e := &Extractor{}
	if err := e.Extract(t.Context(), zipPath, targetDir); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(targetDir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if string(got) != content {
			t.Errorf("content mismatch for %s", name)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "incomplete", "extracted")); !os.IsNotExist(err) {
		t.Errorf("expected incomplete/extracted to be consumed by rename, stat err = %v", err)
	}
}

func TestExtractIsNoOpWhenAlreadyComplete(t *testing.T) {
	zipPath := buildZip(t, map[string]string{"a.psv": "x"})
	root := t.TempDir()
	targetDir := filepath.Join(root, "extracted")
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		t.Fatal(err)
	}

	e := &Extractor{}
	if err := e.Extract(t.Context(), zipPath, targetDir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected the pre-existing empty target to be left untouched, found %d entries", len(entries))
	}
}

func TestExtractSkipsEntryWithMatchingSize(t *testing.T) {
	content := "PID|NUMBER\nGANSW1|1\n"
	zipPath := buildZip(t, map[string]string{"a.psv": content})

	root := t.TempDir()
	incompleteDir := filepath.Join(root, "incomplete", "extracted")
	if err := os.MkdirAll(incompleteDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Pre-seed a file of the correct size but different content; the
	// extractor should treat it as already-extracted and not overwrite it.
	seed := bytes.Repeat([]byte("Z"), len(content))
	if err := os.WriteFile(filepath.Join(incompleteDir, "a.psv"), seed, 0o644); err != nil {
		t.Fatal(err)
	}

	targetDir := filepath.Join(root, "extracted")
	e := &Extractor{}
	if err := e.Extract(t.Context(), zipPath, targetDir); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(targetDir, "a.psv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(seed) {
		t.Fatalf("expected size-matching entry to be skipped (content unchanged), got %q", got)
	}
}
