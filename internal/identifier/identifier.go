// Package identifier implements the hierarchical item identifiers used by
// the browse and content-retrieval protocols. An identifier names an
// account scope, a node type and a path of integer ids, and serializes to
// two forms: slash-delimited for browsing and colon-delimited for content
// URLs.
package identifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separators for the two serialized forms.
const (
	BrowseSep  = "/"
	ContentSep = ":"
)

// ErrInvalid is returned when an identifier string cannot be parsed or an
// accessor is used on an identifier whose path does not support it.
var ErrInvalid = errors.New("invalid identifier")

// NodeType is the single-character tag naming what an identifier refers to.
type NodeType string

const (
	TypeFolder   NodeType = "d"
	TypeNoteFile NodeType = "f"
	TypeNotePage NodeType = "p"
)

func parseNodeType(s string) (NodeType, error) {
	switch NodeType(s) {
	case TypeFolder, TypeNoteFile, TypeNotePage:
		return NodeType(s), nil
	}
	return "", fmt.Errorf("%w: unknown node type %q", ErrInvalid, s)
}

// Identifier is a parsed item identifier.
//
// The meaning of Path depends on Type:
//   - TypeFolder: the ancestor chain of folder ids ending in the target
//     folder (the account root is [0]).
//   - TypeNoteFile: [parentFolderID, fileID].
//   - TypeNotePage: [parentFolderID, fileID, pageIndex].
type Identifier struct {
	Scope string
	Type  NodeType
	Path  []int64
}

// Root returns the identifier of an account's root folder.
func Root(scope string) Identifier {
	return Identifier{Scope: scope, Type: TypeFolder, Path: []int64{0}}
}

// Folder returns a folder identifier from its ancestor chain.
func Folder(scope string, path ...int64) Identifier {
	return Identifier{Scope: scope, Type: TypeFolder, Path: path}
}

// NoteFile returns a note file identifier.
func NoteFile(scope string, parentFolderID, fileID int64) Identifier {
	return Identifier{Scope: scope, Type: TypeNoteFile, Path: []int64{parentFolderID, fileID}}
}

// NotePage returns a note page identifier.
func NotePage(scope string, parentFolderID, fileID int64, pageIndex int) Identifier {
	return Identifier{Scope: scope, Type: TypeNotePage, Path: []int64{parentFolderID, fileID, int64(pageIndex)}}
}

// Encode serializes the identifier using the given separator.
func (id Identifier) Encode(sep string) string {
	parts := make([]string, 0, len(id.Path)+2)
	parts = append(parts, id.Scope, string(id.Type))
	for _, p := range id.Path {
		parts = append(parts, strconv.FormatInt(p, 10))
	}
	return strings.Join(parts, sep)
}

// Decode parses an identifier serialized with the given separator.
func Decode(s, sep string) (Identifier, error) {
	fields := strings.SplitN(s, sep, 3)
	if len(fields) != 3 {
		return Identifier{}, fmt.Errorf("%w: %q: want scope, type and path", ErrInvalid, s)
	}
	nodeType, err := parseNodeType(fields[1])
	if err != nil {
		return Identifier{}, err
	}
	segments := strings.Split(fields[2], sep)
	path := make([]int64, len(segments))
	for i, seg := range segments {
		v, err := strconv.ParseInt(seg, 10, 64)
		if err != nil || v < 0 {
			return Identifier{}, fmt.Errorf("%w: %q: bad path segment %q", ErrInvalid, s, seg)
		}
		path[i] = v
	}
	id := Identifier{Scope: fields[0], Type: nodeType, Path: path}
	if err := id.validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

func (id Identifier) validate() error {
	switch id.Type {
	case TypeFolder:
		if len(id.Path) < 1 {
			return fmt.Errorf("%w: folder path is empty", ErrInvalid)
		}
	case TypeNoteFile:
		if len(id.Path) != 2 {
			return fmt.Errorf("%w: note file path has %d segments, want 2", ErrInvalid, len(id.Path))
		}
	case TypeNotePage:
		if len(id.Path) != 3 {
			return fmt.Errorf("%w: note page path has %d segments, want 3", ErrInvalid, len(id.Path))
		}
	default:
		return fmt.Errorf("%w: unknown node type %q", ErrInvalid, id.Type)
	}
	return nil
}

// IsRoot reports whether the identifier names an account root folder.
func (id Identifier) IsRoot() bool {
	return id.Type == TypeFolder && len(id.Path) == 1 && id.Path[0] == 0
}

// MediaID returns the id of the node the identifier points at: the target
// folder id, the note file id, or the page index.
func (id Identifier) MediaID() (int64, error) {
	if len(id.Path) == 0 {
		return 0, fmt.Errorf("%w: empty path", ErrInvalid)
	}
	return id.Path[len(id.Path)-1], nil
}

// ParentFolderID returns the folder containing the identified node.
func (id Identifier) ParentFolderID() (int64, error) {
	offset := 2
	if id.Type == TypeNotePage {
		offset = 3
	}
	if len(id.Path) < offset {
		return 0, fmt.Errorf("%w: path too short for parent folder", ErrInvalid)
	}
	return id.Path[len(id.Path)-offset], nil
}

// NoteFileID returns the note file id for file and page identifiers.
func (id Identifier) NoteFileID() (int64, error) {
	switch id.Type {
	case TypeNoteFile:
		return id.Path[len(id.Path)-1], nil
	case TypeNotePage:
		if len(id.Path) < 2 {
			return 0, fmt.Errorf("%w: path too short for note file", ErrInvalid)
		}
		return id.Path[len(id.Path)-2], nil
	}
	return 0, fmt.Errorf("%w: %q identifier has no note file", ErrInvalid, id.Type)
}

// PageIndex returns the page index for page identifiers.
func (id Identifier) PageIndex() (int, error) {
	if id.Type != TypeNotePage {
		return 0, fmt.Errorf("%w: %q identifier has no page index", ErrInvalid, id.Type)
	}
	return int(id.Path[len(id.Path)-1]), nil
}
