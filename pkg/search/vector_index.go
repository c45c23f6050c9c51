package search

import (
	"bufio"
	"cmp"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// On-disk layout, little endian:
//
//	"CAVI" | version u16 | dim u32 | count u32
//	count x { idLen u16 | id | sha256 | year i32 | level u16 | dim x f32 }
const (
	indexMagic   = "CAVI"
	indexVersion = uint16(2)
)

// ErrIndexFormat is returned for files that are not a readable index.
var ErrIndexFormat = errors.New("bad index file")

// ContentHash fingerprints the document an entry was embedded from, so an
// unchanged event can reuse its cached vector.
type ContentHash [sha256.Size]byte

// ComputeContentHash hashes a document.
func ComputeContentHash(text string) ContentHash {
	return sha256.Sum256([]byte(text))
}

// Entry is one embedded event together with the placement needed to scope
// a search to a view without going back to the store.
type Entry struct {
	EventID string
	Hash    ContentHash
	Year    int
	Level   int
	Vector  []float32
}

// Filter selects the entries a search may return.
type Filter func(Entry) bool

// InView keeps events at level whose year lies in [minYear, maxYear].
func InView(minYear, maxYear, level int) Filter {
	return func(e Entry) bool {
		return e.Level == level && e.Year >= minYear && e.Year <= maxYear
	}
}

// VectorIndex maps event ids to their vectors. It is built once per load and
// is not safe for concurrent mutation.
type VectorIndex struct {
	Dim     int
	entries map[string]Entry
}

// NewVectorIndex returns an empty index; dim <= 0 selects DefaultEmbeddingDim.
func NewVectorIndex(dim int) *VectorIndex {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &VectorIndex{Dim: dim, entries: make(map[string]Entry)}
}

// Put stores the vector for e, replacing any previous entry.
func (idx *VectorIndex) Put(e model.Event, hash ContentHash, vec []float32) error {
	if e.ID == "" {
		return errors.New("event id cannot be empty")
	}
	if len(vec) != idx.Dim {
		return fmt.Errorf("vector for %s has %d dims, index has %d", e.ID, len(vec), idx.Dim)
	}
	idx.entries[e.ID] = Entry{
		EventID: e.ID,
		Hash:    hash,
		Year:    e.Year,
		Level:   e.HierarchyLevel,
		Vector:  slices.Clone(vec),
	}
	return nil
}

// Lookup returns the entry for id.
func (idx *VectorIndex) Lookup(id string) (Entry, bool) {
	e, ok := idx.entries[id]
	return e, ok
}

// Size returns the number of entries.
func (idx *VectorIndex) Size() int {
	return len(idx.entries)
}

// SearchResult is one scored event id.
type SearchResult struct {
	EventID string  `json:"event_id"`
	Score   float64 `json:"score"`
}

// Rank scores every entry that keep accepts (nil keeps all) by dot product
// with query, best first. Ties go to the smaller id.
func (idx *VectorIndex) Rank(query []float32, keep Filter) ([]SearchResult, error) {
	if len(query) != idx.Dim {
		return nil, fmt.Errorf("query has %d dims, index has %d", len(query), idx.Dim)
	}
	results := make([]SearchResult, 0, len(idx.entries))
	for id, e := range idx.entries {
		if keep != nil && !keep(e) {
			continue
		}
		results = append(results, SearchResult{EventID: id, Score: dot(query, e.Vector)})
	}
	slices.SortFunc(results, func(a, b SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.EventID, b.EventID)
	})
	return results, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Save writes the index to path through a temp file in the same directory.
func (idx *VectorIndex) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".chronarc-index-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := idx.encode(w); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (idx *VectorIndex) encode(w io.Writer) error {
	le := binary.LittleEndian
	if _, err := io.WriteString(w, indexMagic); err != nil {
		return err
	}
	header := []any{indexVersion, uint32(idx.Dim), uint32(len(idx.entries))}
	for _, v := range header {
		if err := binary.Write(w, le, v); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(idx.entries)) {
		e := idx.entries[id]
		if len(id) > math.MaxUint16 {
			return fmt.Errorf("event id too long: %.20s...", id)
		}
		if e.Year < math.MinInt32 || e.Year > math.MaxInt32 || e.Level > math.MaxUint16 {
			return fmt.Errorf("%s: year or level out of range", id)
		}
		record := []any{uint16(len(id)), []byte(id), e.Hash, int32(e.Year), uint16(e.Level), e.Vector}
		for _, v := range record {
			if err := binary.Write(w, le, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadVectorIndex reads an index written by Save.
func LoadVectorIndex(path string) (*VectorIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrIndexFormat, path, err)
	}
	return idx, nil
}

func decode(r io.Reader) (*VectorIndex, error) {
	le := binary.LittleEndian
	var magic [len(indexMagic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != indexMagic {
		return nil, fmt.Errorf("magic %q", magic[:])
	}
	var (
		version    uint16
		dim, count uint32
	)
	for _, v := range []any{&version, &dim, &count} {
		if err := binary.Read(r, le, v); err != nil {
			return nil, err
		}
	}
	if version != indexVersion {
		return nil, fmt.Errorf("version %d", version)
	}
	if dim == 0 {
		return nil, errors.New("zero dim")
	}

	idx := NewVectorIndex(int(dim))
	for range count {
		var idLen uint16
		if err := binary.Read(r, le, &idLen); err != nil {
			return nil, err
		}
		id := make([]byte, idLen)
		var (
			hash  ContentHash
			year  int32
			level uint16
		)
		vec := make([]float32, dim)
		for _, v := range []any{id, &hash, &year, &level, vec} {
			if err := binary.Read(r, le, v); err != nil {
				return nil, err
			}
		}
		if idLen == 0 {
			return nil, errors.New("empty event id")
		}
		idx.entries[string(id)] = Entry{EventID: string(id), Hash: hash, Year: int(year), Level: int(level), Vector: vec}
	}
	return idx, nil
}
