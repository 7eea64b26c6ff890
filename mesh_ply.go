package subdiv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// LoadMeshFromPLYFile reads an ASCII PLY file into a Mesh.
func LoadMeshFromPLYFile(fileName string) (*Mesh, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("could not open PLY file %s: %w", fileName, err)
	}
	defer file.Close()

	m, err := LoadMeshFromPLYReader(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing PLY file %s: %w", fileName, err)
	}
	return m, nil
}

type plyElement struct {
	name       string
	count      int
	properties []string
}

func (e *plyElement) propertyIndex(names ...string) int {
	for i, p := range e.properties {
		for _, n := range names {
			if p == n {
				return i
			}
		}
	}
	return -1
}

// LoadMeshFromPLYReader parses an ASCII PLY stream. Vertices may carry
// s/t (or u/v) texture coordinates, which become the "UVMap" layer. An
// optional edge element with vertex1, vertex2 and crease properties sets
// edge creases. Coincident vertices are welded.
func LoadMeshFromPLYReader(reader io.Reader) (*Mesh, error) {
	scanner := bufio.NewScanner(reader)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		return nil, fmt.Errorf("missing ply magic")
	}

	var elements []*plyElement
	var current *plyElement
	headerDone := false
	for !headerDone && scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "format":
			if len(parts) < 2 || parts[1] != "ascii" {
				return nil, fmt.Errorf("unsupported PLY format %q", strings.Join(parts[1:], " "))
			}
		case "element":
			if len(parts) != 3 {
				return nil, fmt.Errorf("invalid element line %q", scanner.Text())
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid element count %q: %w", parts[2], err)
			}
			current = &plyElement{name: parts[1], count: count}
			elements = append(elements, current)
		case "property":
			if current == nil {
				return nil, fmt.Errorf("property before element")
			}
			current.properties = append(current.properties, parts[len(parts)-1])
		case "end_header":
			headerDone = true
		}
	}
	if !headerDone {
		return nil, fmt.Errorf("unexpected end of file while reading header")
	}

	m := NewMesh()
	var remap []int
	var vertexUVs []mgl64.Vec2
	hasUVs := false

	readFields := func(what string, i int) ([]string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("unexpected end of file while reading %s %d", what, i)
		}
		return strings.Fields(scanner.Text()), nil
	}
	parseFloat := func(s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse float value '%s': %w", s, err)
		}
		return v, nil
	}

	for _, el := range elements {
		switch el.name {
		case "vertex":
			xi, yi, zi := el.propertyIndex("x"), el.propertyIndex("y"), el.propertyIndex("z")
			if xi < 0 || yi < 0 || zi < 0 {
				return nil, fmt.Errorf("vertex element without x, y, z properties")
			}
			si, ti := el.propertyIndex("s", "u", "texture_u"), el.propertyIndex("t", "v", "texture_v")
			hasUVs = si >= 0 && ti >= 0
			remap = make([]int, el.count)
			vertexUVs = make([]mgl64.Vec2, el.count)
			for i := 0; i < el.count; i++ {
				parts, err := readFields("vertex", i)
				if err != nil {
					return nil, err
				}
				if len(parts) < len(el.properties) {
					return nil, fmt.Errorf("invalid vertex data on line %d", i)
				}
				var p mgl64.Vec3
				for axis, idx := range [3]int{xi, yi, zi} {
					if p[axis], err = parseFloat(parts[idx]); err != nil {
						return nil, err
					}
				}
				remap[i] = m.AddVertex(p)
				if hasUVs {
					if vertexUVs[i][0], err = parseFloat(parts[si]); err != nil {
						return nil, err
					}
					if vertexUVs[i][1], err = parseFloat(parts[ti]); err != nil {
						return nil, err
					}
				}
			}
		case "face":
			for i := 0; i < el.count; i++ {
				parts, err := readFields("face", i)
				if err != nil {
					return nil, err
				}
				if len(parts) == 0 {
					return nil, fmt.Errorf("invalid face data on line %d", i)
				}
				numFaceVerts, err := strconv.Atoi(parts[0])
				if err != nil || len(parts) < numFaceVerts+1 {
					return nil, fmt.Errorf("invalid face data on line %d", i)
				}
				loop := make([]int, numFaceVerts)
				uvs := make([]mgl64.Vec2, numFaceVerts)
				for j := 0; j < numFaceVerts; j++ {
					idx, err := strconv.Atoi(parts[j+1])
					if err != nil || idx < 0 || idx >= len(remap) {
						return nil, fmt.Errorf("invalid vertex index %q in face %d", parts[j+1], i)
					}
					loop[j] = remap[idx]
					uvs[j] = vertexUVs[idx]
				}
				f := m.AddFace(loop...)
				if hasUVs {
					if len(m.UVLayers) == 0 {
						m.AddUVLayer("UVMap")
					}
					m.SetFaceUVs(0, f, uvs...)
				}
			}
		case "edge":
			ai, bi, ci := el.propertyIndex("vertex1"), el.propertyIndex("vertex2"), el.propertyIndex("crease")
			for i := 0; i < el.count; i++ {
				parts, err := readFields("edge", i)
				if err != nil {
					return nil, err
				}
				if ai < 0 || bi < 0 || ci < 0 {
					continue
				}
				if len(parts) < len(el.properties) {
					return nil, fmt.Errorf("invalid edge data on line %d", i)
				}
				a, errA := strconv.Atoi(parts[ai])
				b, errB := strconv.Atoi(parts[bi])
				if errA != nil || errB != nil || a < 0 || b < 0 || a >= len(remap) || b >= len(remap) {
					return nil, fmt.Errorf("invalid edge vertices on line %d", i)
				}
				crease, err := parseFloat(parts[ci])
				if err != nil {
					return nil, err
				}
				m.SetEdgeCrease(remap[a], remap[b], crease)
			}
		default:
			for i := 0; i < el.count; i++ {
				if _, err := readFields(el.name, i); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from PLY source: %w", err)
	}
	return m, nil
}
