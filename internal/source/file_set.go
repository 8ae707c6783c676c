package source

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"solar/internal/keccak"
)

// FileID identifies one source unit inside a FileSet. IDs are dense and
// assigned in insertion order, which makes diagnostic ordering deterministic.
type FileID uint32

// File is one logical source unit. The compiler core never reads the
// filesystem; content arrives through FileSet.Add (host) or through the
// import resolver port.
type File struct {
	ID      FileID
	Path    string // logical path, the key external tooling sees
	Content []byte
	LineIdx []uint32 // byte offsets of '\n'
	Hash    [32]byte // keccak256 of Content, reused by metadata
}

// FileSet owns every source unit of one compile invocation.
type FileSet struct {
	files []File
	index map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 8),
		index: make(map[string]FileID),
	}
}

// Add stores a source unit under its logical path and returns its ID.
// Adding the same path twice replaces the index entry but keeps the old
// unit addressable by ID.
func (fs *FileSet) Add(path string, content []byte) FileID {
	content = normalize(content)
	id32, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("ice: file count overflow: %w", err))
	}
	id := FileID(id32)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    keccak.Sum256(content),
	})
	fs.index[path] = id
	return id
}

// Get returns the unit for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// ByPath returns the unit registered under path, if any.
func (fs *FileSet) ByPath(path string) (*File, bool) {
	if id, ok := fs.index[path]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Paths returns every registered logical path, sorted. Metadata emission
// depends on this order being stable.
func (fs *FileSet) Paths() []string {
	out := make([]string, 0, len(fs.index))
	for p := range fs.index {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve converts a span into 1-based line/column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Line returns the text of the 1-based line, without the trailing newline.
func (f *File) Line(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	nIdx, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("ice: line index overflow: %w", err))
	}
	nContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("ice: content length overflow: %w", err))
	}

	var start uint32
	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < nIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	end := nContent
	if lineNum-1 < nIdx {
		end = f.LineIdx[lineNum-1]
	}
	if start >= nContent {
		return ""
	}
	if end > nContent {
		end = nContent
	}
	return string(f.Content[start:end])
}

func buildLineIndex(content []byte) []uint32 {
	var idx []uint32
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i)) //nolint:gosec // i < len(content) <= max uint32 by Add
		}
	}
	return idx
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// количество '\n' строго до off = номер строки - 1
	line := uint32(sort.Search(len(lineIdx), func(i int) bool {
		return lineIdx[i] >= off
	}))
	var lineStart uint32
	if line > 0 {
		lineStart = lineIdx[line-1] + 1
	}
	return LineCol{Line: line + 1, Col: off - lineStart + 1}
}

// normalize strips a UTF-8 BOM and rewrites CRLF to LF so that spans and
// hashes do not depend on checkout settings.
func normalize(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
	}
	hasCR := false
	for _, b := range content {
		if b == '\r' {
			hasCR = true
			break
		}
	}
	if !hasCR {
		return content
	}
	out := make([]byte, 0, len(content))
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			continue
		}
		out = append(out, content[i])
	}
	return out
}
