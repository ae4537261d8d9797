package core

// record.go defines the nested record built from dotted CSV headers.
//
// A record is a tree whose leaves are strings. Node is closed: the only
// implementations are Scalar and Object, so every switch over a Node in this
// package handles exactly those two cases.

import (
	"errors"
	"fmt"
	"strings"
)

// PathSeparator splits a header cell into nesting keys.
const PathSeparator = "."

// ErrEmptyPath is returned by LiftPath for a path with no segments.
var ErrEmptyPath = errors.New("field path has no segments")

// Node is a value inside a nested record: a Scalar or an Object.
type Node interface {
	isNode()
}

// Scalar is a leaf value, always kept as the raw CSV text.
type Scalar string

// Object maps keys to nested values.
type Object map[string]Node

func (Scalar) isNode() {}
func (Object) isNode() {}

// FieldPath is the list of nesting keys for one header column.
type FieldPath []string

// String joins the path back into its dotted header form.
func (p FieldPath) String() string {
	return strings.Join(p, PathSeparator)
}

// ParseFieldPath trims a header cell and splits it on dots.
// Every segment must be non-empty.
func ParseFieldPath(header string) (FieldPath, error) {
	segments := strings.Split(strings.TrimSpace(header), PathSeparator)
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("segment %d of %q is empty", i+1, header)
		}
	}
	return FieldPath(segments), nil
}

// LiftPath builds a single-branch tree holding value at path.
//
//	LiftPath(FieldPath{"name", "firstName"}, "John")
//	// Object{"name": Object{"firstName": Scalar("John")}}
func LiftPath(path FieldPath, value string) (Object, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	root := Object{}
	current := root
	for _, key := range path[:len(path)-1] {
		child := Object{}
		current[key] = child
		current = child
	}
	current[path[len(path)-1]] = Scalar(value)

	return root, nil
}

// MergeInto deep-merges source into target and returns target.
//
// When both sides hold an Object under the same key the merge recurses.
// In every other case the source value replaces the target value, so a
// later Scalar overwrites an earlier Object and vice versa. Keys present
// only in target are left alone.
func MergeInto(target, source Object) Object {
	if target == nil {
		target = Object{}
	}
	for key, src := range source {
		srcObj, srcIsObj := src.(Object)
		dstObj, dstIsObj := target[key].(Object)
		if srcIsObj && dstIsObj {
			target[key] = MergeInto(dstObj, srcObj)
			continue
		}
		target[key] = src
	}
	return target
}

// Lookup walks path from o and returns the node found there.
func (o Object) Lookup(path ...string) (Node, bool) {
	var node Node = o
	for _, key := range path {
		obj, ok := node.(Object)
		if !ok {
			return nil, false
		}
		node, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// ScalarAt returns the string stored at path, if the node there is a Scalar.
func (o Object) ScalarAt(path ...string) (string, bool) {
	node, ok := o.Lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := node.(Scalar)
	return string(s), ok
}
