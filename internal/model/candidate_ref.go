package model

import (
	"errors"
	"strings"
)

// WriteInMarker prefixes write-in candidates in their wire form,
// e.g. "custom:Carl".
const WriteInMarker = "custom:"

// CandidateKind tells a predefined candidate apart from a write-in.
type CandidateKind uint8

const (
	KindStatic CandidateKind = iota
	KindWriteIn
)

// CandidateRef identifies who a vote is for. It is either Static(id),
// pointing at a candidate defined in the category, or WriteIn(name),
// a free-text candidate the voter typed in.
//
// The marker string only exists at the wire boundary (JSON, the votes
// table). Inside the program the kind is explicit, so a static ID can
// never be mistaken for a write-in.
type CandidateRef struct {
	kind  CandidateKind
	value string
}

// Static references a predefined candidate by ID.
func Static(id string) CandidateRef {
	return CandidateRef{kind: KindStatic, value: id}
}

// WriteIn references a free-text candidate. The name is trimmed once;
// casing is kept as typed.
func WriteIn(name string) CandidateRef {
	return CandidateRef{kind: KindWriteIn, value: strings.TrimSpace(name)}
}

// ParseCandidateRef decodes the wire form. Anything carrying the
// write-in marker becomes a write-in, everything else a static ID.
func ParseCandidateRef(s string) CandidateRef {
	if name, ok := strings.CutPrefix(s, WriteInMarker); ok {
		return WriteIn(name)
	}
	return Static(s)
}

func (r CandidateRef) Kind() CandidateKind { return r.kind }

func (r CandidateRef) IsWriteIn() bool { return r.kind == KindWriteIn }

// ID returns the static candidate ID, or "" for write-ins.
func (r CandidateRef) ID() string {
	if r.kind != KindStatic {
		return ""
	}
	return r.value
}

// Name returns the write-in name, or "" for static candidates.
func (r CandidateRef) Name() string {
	if r.kind != KindWriteIn {
		return ""
	}
	return r.value
}

// IsZero reports whether the reference is empty in either kind.
func (r CandidateRef) IsZero() bool { return r.value == "" }

// String returns the wire form.
func (r CandidateRef) String() string {
	if r.kind == KindWriteIn {
		return WriteInMarker + r.value
	}
	return r.value
}

func (r CandidateRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *CandidateRef) UnmarshalText(b []byte) error {
	*r = ParseCandidateRef(string(b))
	return nil
}

var errEmptyCandidate = errors.New("candidate reference is empty")

// Validate rejects empty references. Write-ins with a blank name are
// empty after trimming.
func (r CandidateRef) Validate() error {
	if r.IsZero() {
		return errEmptyCandidate
	}
	return nil
}
