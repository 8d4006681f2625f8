package orgtree

import "errors"

var (
	ErrEmptyTree         = errors.New("org tree has no root")
	ErrEmptyNodeID       = errors.New("org node id is empty")
	ErrNilChild          = errors.New("org node has a nil child")
	ErrDuplicateNodeID   = errors.New("org node id is not unique")
	ErrNegativeHeadcount = errors.New("org node headcount is negative")
	ErrNegativeCapacity  = errors.New("org node capacity is negative")
	ErrUnknownRole       = errors.New("unknown org role")
	ErrProfileMismatch   = errors.New("role profile does not match node role")
	ErrNodeNotFound      = errors.New("org node not found")
)
