package valueobjects

import (
	"errors"
	"strings"
)

// Separator joins path segments at the storage boundary
const Separator = "/"

// DocPath addresses a single document: an even-length tuple alternating
// collection and document names.
type DocPath struct {
	segments []string
}

// CollectionPath addresses a collection: an odd-length tuple ending in the
// collection name.
type CollectionPath struct {
	segments []string
}

// NewDocPath builds a document path from raw segments
func NewDocPath(segments ...string) (DocPath, error) {
	if len(segments) == 0 || len(segments)%2 != 0 {
		return DocPath{}, errors.New("document path needs an even, non-zero number of segments")
	}
	if err := checkSegments(segments); err != nil {
		return DocPath{}, err
	}
	return DocPath{segments: clone(segments)}, nil
}

// MustDocPath is NewDocPath for compile-time constants
func MustDocPath(segments ...string) DocPath {
	p, err := NewDocPath(segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseDocPath parses a slash-separated document path
func ParseDocPath(s string) (DocPath, error) {
	s = strings.Trim(s, Separator)
	if s == "" {
		return DocPath{}, errors.New("document path cannot be empty")
	}
	return NewDocPath(strings.Split(s, Separator)...)
}

// NewCollectionPath builds a collection path from raw segments
func NewCollectionPath(segments ...string) (CollectionPath, error) {
	if len(segments)%2 != 1 {
		return CollectionPath{}, errors.New("collection path needs an odd number of segments")
	}
	if err := checkSegments(segments); err != nil {
		return CollectionPath{}, err
	}
	return CollectionPath{segments: clone(segments)}, nil
}

// ParseCollectionPath parses a slash-separated collection path
func ParseCollectionPath(s string) (CollectionPath, error) {
	s = strings.Trim(s, Separator)
	if s == "" {
		return CollectionPath{}, errors.New("collection path cannot be empty")
	}
	return NewCollectionPath(strings.Split(s, Separator)...)
}

// String serializes the path
func (p DocPath) String() string {
	return strings.Join(p.segments, Separator)
}

// IsZero reports whether the path is unset
func (p DocPath) IsZero() bool {
	return len(p.segments) == 0
}

// ID returns the document id (last segment)
func (p DocPath) ID() string {
	if p.IsZero() {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Segments returns a copy of the raw segments
func (p DocPath) Segments() []string {
	return clone(p.segments)
}

// Depth is the number of document levels in the path
func (p DocPath) Depth() int {
	return len(p.segments) / 2
}

// Parent returns the collection that holds the document
func (p DocPath) Parent() CollectionPath {
	if p.IsZero() {
		return CollectionPath{}
	}
	return CollectionPath{segments: clone(p.segments[:len(p.segments)-1])}
}

// Collection addresses a sub-collection of the document
func (p DocPath) Collection(name string) CollectionPath {
	return CollectionPath{segments: append(clone(p.segments), name)}
}

// Equals compares two document paths
func (p DocPath) Equals(other DocPath) bool {
	return p.String() == other.String()
}

// HasPrefix reports whether p lies at or below the given document
func (p DocPath) HasPrefix(ancestor DocPath) bool {
	if len(ancestor.segments) > len(p.segments) {
		return false
	}
	for i, s := range ancestor.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// MarshalText implements encoding.TextMarshaler
func (p DocPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *DocPath) UnmarshalText(data []byte) error {
	parsed, err := ParseDocPath(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// String serializes the path
func (c CollectionPath) String() string {
	return strings.Join(c.segments, Separator)
}

// IsZero reports whether the path is unset
func (c CollectionPath) IsZero() bool {
	return len(c.segments) == 0
}

// Name returns the collection's own name
func (c CollectionPath) Name() string {
	if c.IsZero() {
		return ""
	}
	return c.segments[len(c.segments)-1]
}

// Doc addresses a document inside the collection
func (c CollectionPath) Doc(id string) DocPath {
	return DocPath{segments: append(clone(c.segments), id)}
}

// Parent returns the owning document; top-level collections have none
func (c CollectionPath) Parent() (DocPath, bool) {
	if len(c.segments) < 3 {
		return DocPath{}, false
	}
	return DocPath{segments: clone(c.segments[:len(c.segments)-1])}, true
}

// Segments returns a copy of the raw segments
func (c CollectionPath) Segments() []string {
	return clone(c.segments)
}

func checkSegments(segments []string) error {
	for _, s := range segments {
		if s == "" {
			return errors.New("path segments cannot be empty")
		}
	}
	return nil
}

func clone(segments []string) []string {
	out := make([]string, len(segments))
	copy(out, segments)
	return out
}
