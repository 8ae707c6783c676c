// Package metadata assembles the tooling artefact paired with each
// compiled contract: compiler version, source set with content hashes,
// settings, and the ABI. The keccak256 of the msgpack encoding is appended
// to the runtime bytecode as a length-suffixed trailer, so tooling can
// resolve bytecode back to its metadata.
package metadata

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"solar/internal/abi"
	"solar/internal/keccak"
	"solar/internal/source"
)

// Source describes one input unit.
type Source struct {
	Path      string `json:"path" msgpack:"path"`
	Keccak256 string `json:"keccak256" msgpack:"keccak256"`
}

// Settings captures the compile configuration that affects output bytes.
type Settings struct {
	Optimizer    OptimizerSettings `json:"optimizer" msgpack:"optimizer"`
	EVMVersion   string            `json:"evmVersion" msgpack:"evmVersion"`
	Libraries    map[string]string `json:"libraries,omitempty" msgpack:"libraries,omitempty"`
	RevertStrings string           `json:"revertStrings,omitempty" msgpack:"revertStrings,omitempty"`
}

type OptimizerSettings struct {
	Enabled bool `json:"enabled" msgpack:"enabled"`
	Runs    int  `json:"runs" msgpack:"runs"`
}

// Document is the metadata record of one contract.
type Document struct {
	Compiler string      `json:"compiler" msgpack:"compiler"`
	Language string      `json:"language" msgpack:"language"`
	Contract string      `json:"contract" msgpack:"contract"`
	Sources  []Source    `json:"sources" msgpack:"sources"`
	Settings Settings    `json:"settings" msgpack:"settings"`
	ABI      []abi.Entry `json:"abi" msgpack:"abi"`
}

// Build assembles the document for one contract over the full source set.
func Build(version, contractName string, fs *source.FileSet, settings Settings, entries []abi.Entry) *Document {
	doc := &Document{
		Compiler: version,
		Language: "Solar",
		Contract: contractName,
		Settings: settings,
		ABI:      entries,
	}
	paths := fs.Paths()
	sort.Strings(paths)
	for _, p := range paths {
		f, ok := fs.ByPath(p)
		if !ok {
			continue
		}
		doc.Sources = append(doc.Sources, Source{
			Path:      p,
			Keccak256: hex.EncodeToString(f.Hash[:]),
		})
	}
	return doc
}

// JSON renders the document for the `metadata` output selection.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Trailer encodes the document and returns the bytes appended to the
// runtime code: keccak256(msgpack(doc)) followed by a 2-byte big-endian
// length of the trailer itself.
func (d *Document) Trailer() ([]byte, error) {
	enc, err := msgpack.Marshal(d)
	if err != nil {
		return nil, err
	}
	hash := keccak.Sum256(enc)
	out := make([]byte, 0, 34)
	out = append(out, hash[:]...)
	out = append(out, 0x00, 0x22) // 34 bytes incl. the length suffix
	return out, nil
}

// Strip removes a metadata trailer from runtime bytes, if present.
func Strip(code []byte) []byte {
	if len(code) < 34 {
		return code
	}
	n := int(code[len(code)-2])<<8 | int(code[len(code)-1])
	if n == 34 && len(code) >= n {
		return code[:len(code)-n]
	}
	return code
}
