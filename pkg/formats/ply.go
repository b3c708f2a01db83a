package formats

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYHeader    = errors.New("invalid PLY header")
	ErrTruncatedPLYData    = errors.New("truncated PLY data")
	ErrUnsupportedTopology = errors.New("unsupported PLY face: expected 3 indices")
)

// Fixed header tokens.
const (
	PLYMagic          = "ply"
	PLYFormatBinaryLE = "format binary_little_endian 1.0"
	PLYEndHeader      = "end_header"
)

// PLYIndicesPerFace is the only face arity the codec accepts.
const PLYIndicesPerFace = 3

// PLYSchema identifies which fixed record layout a PLY body uses.
type PLYSchema int

const (
	// PLYSchemaInstance: vertices carry normal and texcoord, faces carry
	// material, segment and category ids.
	PLYSchemaInstance PLYSchema = iota
	// PLYSchemaSemantic: vertices carry position and color only, faces
	// carry a single object id.
	PLYSchemaSemantic
)

// String returns the schema name.
func (s PLYSchema) String() string {
	switch s {
	case PLYSchemaInstance:
		return "instance"
	case PLYSchemaSemantic:
		return "semantic"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// VertexSize returns the byte size of one vertex record.
func (s PLYSchema) VertexSize() int {
	if s == PLYSchemaInstance {
		return binary.Size(instanceVertexRecord{})
	}
	return binary.Size(semanticVertexRecord{})
}

// FaceSize returns the byte size of one face record, count byte included.
func (s PLYSchema) FaceSize() int {
	if s == PLYSchemaInstance {
		return 1 + binary.Size(instanceFaceRecord{})
	}
	return 1 + binary.Size(semanticFaceRecord{})
}

// PLYHeader holds the element counts declared by a header.
type PLYHeader struct {
	VertexCount int
	FaceCount   int
}

// PLYVertex is a decoded vertex record. Normal and TexCoord are zero for the
// semantic schema.
type PLYVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Color    [3]uint8
}

// PLYFace is a decoded instance-schema face record.
type PLYFace struct {
	Indices    [3]int32
	MaterialID int32
	SegmentID  int32 // negative means no segment
	CategoryID int32
}

// PLYSemanticFace is a decoded semantic-schema face record.
type PLYSemanticFace struct {
	Indices  [3]int32
	ObjectID int32
}

// On-disk record layouts. binary.Read/Write treat these as packed.
type instanceVertexRecord struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Color    [3]uint8
}

type semanticVertexRecord struct {
	Position [3]float32
	Color    [3]uint8
}

type instanceFaceRecord struct {
	Indices    [3]int32
	MaterialID int32
	SegmentID  int32
	CategoryID int32
}

type semanticFaceRecord struct {
	Indices  [3]int32
	ObjectID int32
}

// ReadPLYHeader consumes the ASCII header up to and including "end_header".
// Property lines are ignored; the record layout is implied by the schema the
// caller reads the body with.
func ReadPLYHeader(r *bufio.Reader) (PLYHeader, error) {
	var h PLYHeader

	line, err := readHeaderLine(r)
	if err != nil {
		return h, fmt.Errorf("%w: reading magic: %v", ErrInvalidPLYHeader, err)
	}
	if line != PLYMagic {
		return h, fmt.Errorf("%w: expected %q, got %q", ErrInvalidPLYHeader, PLYMagic, line)
	}

	line, err = readHeaderLine(r)
	if err != nil {
		return h, fmt.Errorf("%w: reading format: %v", ErrInvalidPLYHeader, err)
	}
	if line != PLYFormatBinaryLE {
		return h, fmt.Errorf("%w: expected %q, got %q", ErrInvalidPLYHeader, PLYFormatBinaryLE, line)
	}

	// element vertex N (comments may precede it)
	for {
		line, err = readHeaderLine(r)
		if err != nil {
			return h, fmt.Errorf("%w: missing element vertex line", ErrInvalidPLYHeader)
		}
		if !strings.HasPrefix(line, "comment") && !strings.HasPrefix(line, "obj_info") {
			break
		}
	}
	if h.VertexCount, err = parseElementLine(line, "vertex"); err != nil {
		return h, err
	}

	// The header schema is fixed, so skip forward to the face count.
	for {
		line, err = readHeaderLine(r)
		if err != nil {
			return h, fmt.Errorf("%w: missing element face line", ErrInvalidPLYHeader)
		}
		if strings.HasPrefix(line, "element face") {
			break
		}
	}
	if h.FaceCount, err = parseElementLine(line, "face"); err != nil {
		return h, err
	}

	for {
		line, err = readHeaderLine(r)
		if err != nil {
			return h, fmt.Errorf("%w: missing %s", ErrInvalidPLYHeader, PLYEndHeader)
		}
		if line == PLYEndHeader {
			return h, nil
		}
	}
}

// readHeaderLine returns the next header line without its terminator.
// A final unterminated line is returned as-is; io.EOF is reported only when
// nothing is left.
func readHeaderLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseElementLine parses "element <name> <count>".
func parseElementLine(line, name string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "element" || fields[1] != name {
		return 0, fmt.Errorf("%w: malformed element %s line %q", ErrInvalidPLYHeader, name, line)
	}
	// Counts are 32-bit signed, as vertex indices are.
	n, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s count %q", ErrInvalidPLYHeader, name, fields[2])
	}
	return int(n), nil
}

// WritePLYHeader writes a semantic-schema header for the given counts.
func WritePLYHeader(w io.Writer, h PLYHeader) error {
	lines := []string{
		PLYMagic,
		PLYFormatBinaryLE,
		"element vertex " + strconv.Itoa(h.VertexCount),
		"property float x",
		"property float y",
		"property float z",
		"property uchar red",
		"property uchar green",
		"property uchar blue",
		"element face " + strconv.Itoa(h.FaceCount),
		"property list uchar int vertex_indices",
		"property int object_id",
		PLYEndHeader,
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	return nil
}

// readRecord reads one packed record, mapping a short read to ErrTruncatedPLYData.
func readRecord(r io.Reader, data any, what string) error {
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: reading %s", ErrTruncatedPLYData, what)
		}
		return fmt.Errorf("reading %s: %w", what, err)
	}
	return nil
}

// ReadInstanceVertex reads one instance-schema vertex record.
func ReadInstanceVertex(r io.Reader) (PLYVertex, error) {
	var rec instanceVertexRecord
	if err := readRecord(r, &rec, "vertex"); err != nil {
		return PLYVertex{}, err
	}
	return PLYVertex(rec), nil
}

// ReadSemanticVertex reads one semantic-schema vertex record.
func ReadSemanticVertex(r io.Reader) (PLYVertex, error) {
	var rec semanticVertexRecord
	if err := readRecord(r, &rec, "vertex"); err != nil {
		return PLYVertex{}, err
	}
	return PLYVertex{Position: rec.Position, Color: rec.Color}, nil
}

// readIndexCount reads the leading list-length byte of a face record.
func readIndexCount(r io.Reader) error {
	var n uint8
	if err := readRecord(r, &n, "face index count"); err != nil {
		return err
	}
	if n != PLYIndicesPerFace {
		return fmt.Errorf("%w: got %d", ErrUnsupportedTopology, n)
	}
	return nil
}

// ReadInstanceFace reads one instance-schema face record.
func ReadInstanceFace(r io.Reader) (PLYFace, error) {
	if err := readIndexCount(r); err != nil {
		return PLYFace{}, err
	}
	var rec instanceFaceRecord
	if err := readRecord(r, &rec, "face"); err != nil {
		return PLYFace{}, err
	}
	return PLYFace(rec), nil
}

// ReadSemanticFace reads one semantic-schema face record.
func ReadSemanticFace(r io.Reader) (PLYSemanticFace, error) {
	if err := readIndexCount(r); err != nil {
		return PLYSemanticFace{}, err
	}
	var rec semanticFaceRecord
	if err := readRecord(r, &rec, "face"); err != nil {
		return PLYSemanticFace{}, err
	}
	return PLYSemanticFace(rec), nil
}

// WriteSemanticVertex writes position and color. Normals and texcoords are
// not part of the semantic schema.
func WriteSemanticVertex(w io.Writer, v PLYVertex) error {
	rec := semanticVertexRecord{Position: v.Position, Color: v.Color}
	if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
		return fmt.Errorf("writing vertex: %w", err)
	}
	return nil
}

// WriteSemanticFace writes the index triple and object id.
func WriteSemanticFace(w io.Writer, f PLYSemanticFace) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(PLYIndicesPerFace)); err != nil {
		return fmt.Errorf("writing face: %w", err)
	}
	rec := semanticFaceRecord(f)
	if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
		return fmt.Errorf("writing face: %w", err)
	}
	return nil
}
