package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// The index persists as two co-located artifacts: a binary vector blob and
// a JSON mapping table. They are written and loaded together; one without
// the other leaves unresolvable vectors, so LoadFrom treats that as fatal.
const (
	VectorsFile = "vectors.bin"
	IDMapFile   = "idmap.json"

	blobMagic   uint32 = 0x41524758 // "ARGX"
	blobVersion uint32 = 1
)

type blobHeader struct {
	Magic     uint32
	Version   uint32
	Dimension uint32
	Count     uint64
	NextID    int64
}

// Save serializes the full vector set and the internal ID counter.
func (x *FlatIndex) Save(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	header := blobHeader{
		Magic:     blobMagic,
		Version:   blobVersion,
		Dimension: uint32(x.dimension),
		Count:     uint64(len(x.vectors)),
		NextID:    x.nextID,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, vec := range x.vectors {
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with the serialized form. The stream
// must carry the same dimension the index was constructed with.
func (x *FlatIndex) Load(r io.Reader) error {
	var header blobHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if header.Magic != blobMagic {
		return fmt.Errorf("not a vector blob (magic %#x)", header.Magic)
	}
	if header.Version != blobVersion {
		return fmt.Errorf("unsupported vector blob version %d", header.Version)
	}
	if int(header.Dimension) != x.dimension {
		return fmt.Errorf("%w: index dimension %d, blob dimension %d",
			ErrDimensionMismatch, x.dimension, header.Dimension)
	}

	vectors := make([][]float32, header.Count)
	for i := range vectors {
		vec := make([]float32, header.Dimension)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors[i] = vec
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = vectors
	x.nextID = header.NextID
	return nil
}

type idMapBinding struct {
	VectorID int64  `json:"vector_id"`
	RecordID string `json:"record_id"`
}

type idMapFileData struct {
	Bindings []idMapBinding `json:"bindings"`
}

// Save writes the mapping table as JSON, ordered by vector ID.
func (m *IDMap) Save(w io.Writer) error {
	bindings := m.Bindings()

	data := idMapFileData{Bindings: make([]idMapBinding, 0, len(bindings))}
	for id, rec := range bindings {
		data.Bindings = append(data.Bindings, idMapBinding{VectorID: id, RecordID: rec})
	}
	sort.Slice(data.Bindings, func(i, j int) bool {
		return data.Bindings[i].VectorID < data.Bindings[j].VectorID
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Load replaces the mapping table with the serialized form.
func (m *IDMap) Load(r io.Reader) error {
	var data idMapFileData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("decode id map: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.toRecord = make(map[int64]string, len(data.Bindings))
	m.toVector = make(map[string]int64, len(data.Bindings))
	for _, b := range data.Bindings {
		if existing, ok := m.toRecord[b.VectorID]; ok {
			return fmt.Errorf("%w: id %d bound to both %s and %s",
				ErrDuplicateBinding, b.VectorID, existing, b.RecordID)
		}
		m.toRecord[b.VectorID] = b.RecordID
		m.toVector[b.RecordID] = b.VectorID
	}
	return nil
}

// SaveTo writes both artifacts into dir.
func SaveTo(dir string, index *FlatIndex, idMap *IDMap) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, VectorsFile))
	if err != nil {
		return err
	}
	defer vf.Close()
	if err := index.Save(vf); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}

	mf, err := os.Create(filepath.Join(dir, IDMapFile))
	if err != nil {
		return err
	}
	defer mf.Close()
	if err := idMap.Save(mf); err != nil {
		return fmt.Errorf("save id map: %w", err)
	}
	return nil
}

// LoadFrom reads both artifacts from dir. When neither exists an empty
// index and map are returned; exactly one present is a fatal startup
// error because the pair is only consistent together.
func LoadFrom(dir string, dimension int) (*FlatIndex, *IDMap, error) {
	index, err := NewFlatIndex(dimension)
	if err != nil {
		return nil, nil, err
	}
	idMap := NewIDMap()

	vectorsPath := filepath.Join(dir, VectorsFile)
	idMapPath := filepath.Join(dir, IDMapFile)

	vectorsExist := fileExists(vectorsPath)
	idMapExists := fileExists(idMapPath)

	switch {
	case !vectorsExist && !idMapExists:
		return index, idMap, nil
	case vectorsExist != idMapExists:
		return nil, nil, fmt.Errorf("index artifacts out of step: %s present=%v, %s present=%v",
			VectorsFile, vectorsExist, IDMapFile, idMapExists)
	}

	vf, err := os.Open(vectorsPath)
	if err != nil {
		return nil, nil, err
	}
	defer vf.Close()
	if err := index.Load(vf); err != nil {
		return nil, nil, fmt.Errorf("load vectors: %w", err)
	}

	mf, err := os.Open(idMapPath)
	if err != nil {
		return nil, nil, err
	}
	defer mf.Close()
	if err := idMap.Load(mf); err != nil {
		return nil, nil, fmt.Errorf("load id map: %w", err)
	}

	return index, idMap, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
