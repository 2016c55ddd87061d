package protocol

import "fmt"

// SelectorKind distinguishes the three forms a GDB thread/process selector
// can take on the wire.
type SelectorKind int

const (
	// SelectorAny is the wire value "0".
	SelectorAny SelectorKind = iota
	// SelectorAll is the wire value "-1".
	SelectorAll
	// SelectorID is a specific positive id.
	SelectorID
)

// Selector is one of {any, all, specific(id>0)}.
type Selector struct {
	Kind SelectorKind
	ID   uint64 // valid only when Kind == SelectorID
}

// AnySelector, AllSelector construct the two sentinel selectors.
func AnySelector() Selector { return Selector{Kind: SelectorAny} }
func AllSelector() Selector { return Selector{Kind: SelectorAll} }

// IDSelector constructs a specific-id selector. id must be > 0.
func IDSelector(id uint64) Selector { return Selector{Kind: SelectorID, ID: id} }

// ThreadID is a full thread-id: an optional process selector plus a
// required thread selector, per the "[p<pid>.]<tid>" wire grammar.
type ThreadID struct {
	PID *Selector
	TID Selector
}

// ParseSelector decodes a single selector field: "-1", "0", or a positive
// hex id.
func ParseSelector(s []byte) (Selector, error) {
	switch string(s) {
	case "-1":
		return AllSelector(), nil
	case "0":
		return AnySelector(), nil
	default:
		v, err := DecodeHexU64(s)
		if err != nil {
			return Selector{}, err
		}
		if v == 0 {
			return Selector{}, fmt.Errorf("zero id must be encoded as \"0\"")
		}
		return IDSelector(v), nil
	}
}

// ParseThreadID decodes a full thread-id field, handling the optional
// "p<pid>." prefix.
func ParseThreadID(s []byte) (ThreadID, error) {
	if len(s) > 0 && s[0] == 'p' {
		rest := s[1:]
		dot := -1
		for i, b := range rest {
			if b == '.' {
				dot = i
				break
			}
		}
		if dot < 0 {
			pid, err := ParseSelector(rest)
			if err != nil {
				return ThreadID{}, err
			}
			return ThreadID{PID: &pid, TID: AllSelector()}, nil
		}
		pid, err := ParseSelector(rest[:dot])
		if err != nil {
			return ThreadID{}, err
		}
		tid, err := ParseSelector(rest[dot+1:])
		if err != nil {
			return ThreadID{}, err
		}
		return ThreadID{PID: &pid, TID: tid}, nil
	}
	tid, err := ParseSelector(s)
	if err != nil {
		return ThreadID{}, err
	}
	return ThreadID{TID: tid}, nil
}
