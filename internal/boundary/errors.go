package boundary

import "fmt"

// DataLoadError means the boundary source is missing, unreadable, unparseable
// or holds no geometry. It is fatal at startup.
type DataLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("boundary: load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("boundary: load %s: %s", e.Path, e.Reason)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// InvalidGeometryError means the geometry is degenerate or of an unsupported
// type. Part and Ring are -1 when the problem is not tied to a single ring.
type InvalidGeometryError struct {
	Reason string
	Part   int
	Ring   int
}

func (e *InvalidGeometryError) Error() string {
	if e.Part < 0 {
		return "boundary: invalid geometry: " + e.Reason
	}
	return fmt.Sprintf("boundary: invalid geometry: part %d ring %d: %s", e.Part, e.Ring, e.Reason)
}

func invalid(reason string) *InvalidGeometryError {
	return &InvalidGeometryError{Reason: reason, Part: -1, Ring: -1}
}
