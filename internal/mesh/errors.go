package mesh

import (
	"errors"
	"fmt"
)

// Mesh store errors. Codec errors (formats.ErrInvalidPLYHeader,
// formats.ErrTruncatedPLYData, formats.ErrUnsupportedTopology) pass through
// unchanged and can be matched with errors.Is.
var (
	ErrMeshIO            = errors.New("mesh I/O error")
	ErrUnresolvedSegment = errors.New("segment id has no object id")
	ErrVertexIndexRange  = errors.New("face references vertex out of range")
	ErrMeshTooLarge      = errors.New("declared element count exceeds limit")
	ErrNoSegments        = errors.New("mesh has no segment ids")
	ErrInvalidMeshIndex  = errors.New("mesh index out of range")
	ErrInvalidAccessor   = errors.New("glTF accessor index out of range")
)

// Stage names the step of a load or save that failed.
type Stage string

const (
	StageOpen    Stage = "open"
	StageHeader  Stage = "header"
	StageVertex  Stage = "vertex"
	StageFace    Stage = "face"
	StageLabels  Stage = "labels"
	StageResolve Stage = "resolve"
	StageWrite   Stage = "write"
	StageCommit  Stage = "commit"
)

// Error records a failed load or save with the file and stage involved.
type Error struct {
	Op    string // "load instance", "load semantic", "save semantic", ...
	Path  string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
