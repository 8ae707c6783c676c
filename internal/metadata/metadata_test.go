package metadata

import (
	"bytes"
	"testing"

	"solar/internal/source"
)

func testDoc() *Document {
	fs := source.NewFileSet()
	fs.Add("a.sol", []byte("contract A {}"))
	fs.Add("b.sol", []byte("contract B {}"))
	return Build("solar 0.1.0", "A", fs, Settings{
		Optimizer:  OptimizerSettings{Enabled: true, Runs: 200},
		EVMVersion: "shanghai",
	}, nil)
}

func TestDocumentSourcesSorted(t *testing.T) {
	doc := testDoc()
	if len(doc.Sources) != 2 || doc.Sources[0].Path != "a.sol" || doc.Sources[1].Path != "b.sol" {
		t.Fatalf("sources = %+v", doc.Sources)
	}
	if len(doc.Sources[0].Keccak256) != 64 {
		t.Fatalf("hash length = %d", len(doc.Sources[0].Keccak256))
	}
}

func TestTrailerDeterministicAndStrippable(t *testing.T) {
	doc := testDoc()
	t1, err := doc.Trailer()
	if err != nil {
		t.Fatal(err)
	}
	t2, err := doc.Trailer()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(t1, t2) {
		t.Fatal("trailer must be deterministic")
	}
	if len(t1) != 34 {
		t.Fatalf("trailer length = %d", len(t1))
	}

	code := append([]byte{0x60, 0x00}, t1...)
	if got := Strip(code); !bytes.Equal(got, []byte{0x60, 0x00}) {
		t.Fatalf("strip = %x", got)
	}
}

func TestTrailerChangesWithSettings(t *testing.T) {
	doc := testDoc()
	t1, _ := doc.Trailer()
	doc.Settings.Optimizer.Runs = 999
	t2, _ := doc.Trailer()
	if bytes.Equal(t1, t2) {
		t.Fatal("settings must influence the metadata hash")
	}
}
