package generator

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Vertex is an interaction point in cm.
type Vertex struct {
	X float64
	Y float64
	Z float64
}

type backgroundRecord struct {
	VertexX float64 `json:"vertex_x"`
	VertexY float64 `json:"vertex_y"`
	VertexZ float64 `json:"vertex_z"`
}

// embedProvider serves interaction vertices from a background event file so
// signal events can be embedded into already-transported background. The file
// shares the kinematics format; only the vertex fields are read.
type embedProvider struct {
	fileName string
	vertices []Vertex
	next     int
}

func newEmbedProvider(path string) (*embedProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open background file %s", path)
	}
	defer f.Close()

	var vertices []Vertex
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxKinLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record backgroundRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, errors.Wrapf(err, "background file %s line %d", path, line)
		}
		vertices = append(vertices, Vertex{X: record.VertexX, Y: record.VertexY, Z: record.VertexZ})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read background file %s", path)
	}
	if len(vertices) == 0 {
		return nil, errors.Errorf("background file %s contains no events", path)
	}
	return &embedProvider{fileName: path, vertices: vertices}, nil
}

// NextVertex returns the vertex of the next background interaction and its
// ordinal in the background file, wrapping around at the end.
func (p *embedProvider) NextVertex() (Vertex, int) {
	index := p.next
	v := p.vertices[index]
	p.next = (p.next + 1) % len(p.vertices)
	return v, index
}
