// Package crdt implements a Logoot sequence CRDT over runes. Each atom
// carries a position identifier; identifiers are dense and totally ordered,
// so concurrent inserts and deletes from different sites converge without
// coordination.
package crdt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Ident is one digit of a position identifier.
type Ident struct {
	Pos  uint32
	Site uint32
}

// Pid is a Logoot position identifier: a non-empty sequence of idents.
type Pid []Ident

// Compare returns -1, 0 or 1 ordering p against q.
func (p Pid) Compare(q Pid) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i].Pos != q[i].Pos {
			if p[i].Pos < q[i].Pos {
				return -1
			}
			return 1
		}
		if p[i].Site != q[i].Site {
			if p[i].Site < q[i].Site {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	default:
		return 0
	}
}

// Encode renders the pid as "pos.site:pos.site".
func (p Pid) Encode() string {
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = fmt.Sprintf("%d.%d", id.Pos, id.Site)
	}
	return strings.Join(parts, ":")
}

// DecodePid parses the Encode format.
func DecodePid(s string) (Pid, error) {
	var p Pid
	for _, part := range strings.Split(s, ":") {
		posStr, siteStr, ok := strings.Cut(part, ".")
		if !ok {
			return nil, fmt.Errorf("failed to parse pid %q", s)
		}
		pos, err := strconv.ParseUint(posStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pid %q: %w", s, err)
		}
		site, err := strconv.ParseUint(siteStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pid %q: %w", s, err)
		}
		p = append(p, Ident{Pos: uint32(pos), Site: uint32(site)})
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("failed to parse pid %q", s)
	}
	return p, nil
}

// Op is a replicated operation.
type Op interface {
	Encode() string
}

// Insert places one atom at a position identifier.
type Insert struct {
	Pid   Pid
	Value rune
}

// Encode renders the op for transport.
func (op *Insert) Encode() string {
	return fmt.Sprintf("i,%s,%s", op.Pid.Encode(), string(op.Value))
}

// Delete removes the atom with the given position identifier.
type Delete struct {
	Pid Pid
}

// Encode renders the op for transport.
func (op *Delete) Encode() string {
	return fmt.Sprintf("d,%s", op.Pid.Encode())
}

// DecodeOp parses an encoded op.
func DecodeOp(s string) (Op, error) {
	kind, rest, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("failed to parse op %q", s)
	}
	switch kind {
	case "i":
		pidStr, value, ok := strings.Cut(rest, ",")
		if !ok || value == "" {
			return nil, fmt.Errorf("failed to parse op %q", s)
		}
		pid, err := DecodePid(pidStr)
		if err != nil {
			return nil, err
		}
		return &Insert{Pid: pid, Value: []rune(value)[0]}, nil
	case "d":
		pid, err := DecodePid(rest)
		if err != nil {
			return nil, err
		}
		return &Delete{Pid: pid}, nil
	default:
		return nil, fmt.Errorf("unknown op type %q", kind)
	}
}

// EncodeOps encodes a batch.
func EncodeOps(ops []Op) []string {
	strs := make([]string, len(ops))
	for i, op := range ops {
		strs[i] = op.Encode()
	}
	return strs
}

// DecodeOps decodes a batch.
func DecodeOps(strs []string) ([]Op, error) {
	ops := make([]Op, len(strs))
	for i, s := range strs {
		op, err := DecodeOp(s)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

type atom struct {
	pid   Pid
	value rune
}

// Doc is one site's replica of the sequence.
type Doc struct {
	site  uint32
	clock uint32
	atoms []atom
}

// NewDoc creates an empty replica for the given site id.
func NewDoc(site uint32) *Doc {
	return &Doc{site: site}
}

// Text returns the document text.
func (d *Doc) Text() string {
	var b strings.Builder
	for _, a := range d.atoms {
		b.WriteRune(a.value)
	}
	return b.String()
}

// Len returns the number of atoms (runes).
func (d *Doc) Len() int {
	return len(d.atoms)
}

// InsertAt generates and locally applies ops inserting s before rune index
// pos. The returned ops are ready to broadcast.
func (d *Doc) InsertAt(pos int, s string) []Op {
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.atoms) {
		pos = len(d.atoms)
	}
	var ops []Op
	for _, r := range s {
		var left, right Pid
		if pos > 0 {
			left = d.atoms[pos-1].pid
		}
		if pos < len(d.atoms) {
			right = d.atoms[pos].pid
		}
		pid := d.pidBetween(left, right)
		op := &Insert{Pid: pid, Value: r}
		d.apply(op)
		ops = append(ops, op)
		pos++
	}
	return ops
}

// DeleteAt generates and locally applies ops deleting n runes starting at
// rune index pos.
func (d *Doc) DeleteAt(pos, n int) []Op {
	var ops []Op
	for i := 0; i < n && pos < len(d.atoms); i++ {
		op := &Delete{Pid: d.atoms[pos].pid}
		d.apply(op)
		ops = append(ops, op)
	}
	return ops
}

// Apply merges remote ops. Duplicate inserts and deletes of missing atoms
// are ignored, so delivery may be at-least-once and in any order.
func (d *Doc) Apply(ops []Op) {
	for _, op := range ops {
		d.apply(op)
	}
}

func (d *Doc) apply(op Op) {
	switch op := op.(type) {
	case *Insert:
		i, exists := d.search(op.Pid)
		if exists {
			return
		}
		d.atoms = append(d.atoms, atom{})
		copy(d.atoms[i+1:], d.atoms[i:])
		d.atoms[i] = atom{pid: op.Pid, value: op.Value}
	case *Delete:
		i, exists := d.search(op.Pid)
		if !exists {
			return
		}
		d.atoms = append(d.atoms[:i], d.atoms[i+1:]...)
	}
}

// search locates pid's index via binary search.
func (d *Doc) search(pid Pid) (int, bool) {
	i := sort.Search(len(d.atoms), func(i int) bool {
		return d.atoms[i].pid.Compare(pid) >= 0
	})
	if i < len(d.atoms) && d.atoms[i].pid.Compare(pid) == 0 {
		return i, true
	}
	return i, false
}

// pidBetween derives a fresh identifier strictly between left and right.
// Empty left means the document start; empty right means the end.
func (d *Doc) pidBetween(left, right Pid) Pid {
	d.clock++
	var prefix Pid
	pinRight := true // prefix still equals right's leading digits
	for depth := 0; ; depth++ {
		lp := uint32(0)
		if depth < len(left) {
			lp = left[depth].Pos
		}
		rp := uint32(1<<32 - 1)
		var rd Ident
		haveRight := pinRight && depth < len(right)
		if haveRight {
			rd = right[depth]
			rp = rd.Pos
		}
		if rp-lp > 1 {
			return append(prefix, Ident{Pos: lp + 1 + d.clock%(rp-lp-1), Site: d.site})
		}
		// No room at this depth: adopt a digit inside the bounds and descend.
		switch {
		case depth < len(left):
			prefix = append(prefix, left[depth])
			if haveRight && left[depth] != rd {
				pinRight = false
			}
		case haveRight && rd.Pos == 0 && d.site >= rd.Site:
			// A zero digit from an equal-or-smaller site cannot be undercut;
			// track right's digit and find room one level deeper.
			prefix = append(prefix, rd)
		default:
			prefix = append(prefix, Ident{Pos: lp, Site: d.site})
			pinRight = false
		}
	}
}
