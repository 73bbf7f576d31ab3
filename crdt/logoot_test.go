package crdt

import "testing"

func TestInsertDeleteLocal(t *testing.T) {
	d := NewDoc(1)
	d.InsertAt(0, "hello")
	if d.Text() != "hello" {
		t.Fatalf("got %q", d.Text())
	}
	d.InsertAt(5, " world")
	if d.Text() != "hello world" {
		t.Fatalf("got %q", d.Text())
	}
	d.DeleteAt(0, 6)
	if d.Text() != "world" {
		t.Errorf("got %q", d.Text())
	}
	if d.Len() != 5 {
		t.Errorf("Len = %d, want 5", d.Len())
	}
}

func TestInsertMiddle(t *testing.T) {
	d := NewDoc(1)
	d.InsertAt(0, "ac")
	d.InsertAt(1, "b")
	if d.Text() != "abc" {
		t.Errorf("got %q", d.Text())
	}
}

func TestConcurrentInsertsConverge(t *testing.T) {
	a, b := NewDoc(1), NewDoc(2)
	opsA := a.InsertAt(0, "aaa")
	opsB := b.InsertAt(0, "bbb")

	a.Apply(opsB)
	b.Apply(opsA)

	if a.Text() != b.Text() {
		t.Errorf("diverged: a=%q b=%q", a.Text(), b.Text())
	}
	if a.Len() != 6 {
		t.Errorf("merged Len = %d, want 6", a.Len())
	}
}

func TestApplyIdempotent(t *testing.T) {
	a, b := NewDoc(1), NewDoc(2)
	ops := a.InsertAt(0, "xy")
	b.Apply(ops)
	b.Apply(ops) // duplicate delivery
	if b.Text() != "xy" {
		t.Errorf("got %q after duplicate delivery", b.Text())
	}

	del := a.DeleteAt(0, 1)
	b.Apply(del)
	b.Apply(del)
	if b.Text() != "y" {
		t.Errorf("got %q after duplicate delete", b.Text())
	}
}

func TestApplyOutOfOrder(t *testing.T) {
	a, b := NewDoc(1), NewDoc(2)
	ops := a.InsertAt(0, "abc")
	// Deliver in reverse.
	for i := len(ops) - 1; i >= 0; i-- {
		b.Apply(ops[i : i+1])
	}
	if b.Text() != "abc" {
		t.Errorf("got %q after reversed delivery", b.Text())
	}
}

func TestDeleteMissingIgnored(t *testing.T) {
	a, b := NewDoc(1), NewDoc(2)
	ops := a.InsertAt(0, "x")
	del := a.DeleteAt(0, 1)
	// The delete arrives before the insert it targets.
	b.Apply(del)
	b.Apply(ops)
	b.Apply(del)
	if b.Text() != "" {
		t.Errorf("got %q, want empty", b.Text())
	}
}

func TestInterleavedEditingConverges(t *testing.T) {
	a, b := NewDoc(1), NewDoc(2)
	var log []Op

	log = append(log, a.InsertAt(0, "base")...)
	b.Apply(log)

	opsA := a.InsertAt(4, "-tail")
	opsB := b.InsertAt(0, "head-")
	a.Apply(opsB)
	b.Apply(opsA)

	if a.Text() != b.Text() {
		t.Fatalf("diverged: a=%q b=%q", a.Text(), b.Text())
	}
	if a.Text() != "head-base-tail" {
		t.Errorf("got %q, want %q", a.Text(), "head-base-tail")
	}
}

func TestPidCompare(t *testing.T) {
	tests := []struct {
		name string
		p, q Pid
		want int
	}{
		{"equal", Pid{{1, 1}}, Pid{{1, 1}}, 0},
		{"pos orders first", Pid{{1, 9}}, Pid{{2, 1}}, -1},
		{"site breaks ties", Pid{{1, 1}}, Pid{{1, 2}}, -1},
		{"prefix is smaller", Pid{{1, 1}}, Pid{{1, 1}, {5, 1}}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Compare(tt.q); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
			if got := tt.q.Compare(tt.p); got != -tt.want {
				t.Errorf("reverse Compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestOpEncodeDecodeRoundTrip(t *testing.T) {
	ops := []Op{
		&Insert{Pid: Pid{{Pos: 3, Site: 1}, {Pos: 7, Site: 2}}, Value: 'x'},
		&Delete{Pid: Pid{{Pos: 12, Site: 4}}},
		&Insert{Pid: Pid{{Pos: 1, Site: 1}}, Value: '界'},
	}
	decoded, err := DecodeOps(EncodeOps(ops))
	if err != nil {
		t.Fatalf("DecodeOps: %v", err)
	}
	for i, op := range decoded {
		if op.Encode() != ops[i].Encode() {
			t.Errorf("op %d round trip: got %q, want %q", i, op.Encode(), ops[i].Encode())
		}
	}
}

func TestDecodeOpErrors(t *testing.T) {
	for _, s := range []string{"", "x,1.1", "i,1.1", "i,notapid,v", "d,1:2"} {
		if _, err := DecodeOp(s); err == nil {
			t.Errorf("DecodeOp(%q) should fail", s)
		}
	}
}

func TestFrontInsertAfterRemoteDescent(t *testing.T) {
	// Site 1's repeated prepends push the first atom onto a zero digit;
	// site 2's subsequent prepend must still land strictly before it.
	a, b := NewDoc(1), NewDoc(2)
	var log []Op
	log = append(log, a.InsertAt(0, "c")...)
	log = append(log, a.InsertAt(0, "b")...)
	log = append(log, a.InsertAt(0, "a")...)
	b.Apply(log)

	opsB := b.InsertAt(0, "z")
	a.Apply(opsB)

	if b.Text() != "zabc" {
		t.Errorf("site 2 text = %q, want %q", b.Text(), "zabc")
	}
	if a.Text() != b.Text() {
		t.Errorf("diverged: a=%q b=%q", a.Text(), b.Text())
	}
}

func TestPidBetweenCrossSiteFrontInserts(t *testing.T) {
	// Alternate front inserts from many sites; atom order must stay strict.
	docs := []*Doc{NewDoc(1), NewDoc(2), NewDoc(3)}
	for i := 0; i < 30; i++ {
		src := docs[i%len(docs)]
		ops := src.InsertAt(0, "x")
		for _, d := range docs {
			if d != src {
				d.Apply(ops)
			}
		}
	}
	for _, d := range docs {
		if d.Text() != docs[0].Text() {
			t.Fatalf("diverged: %q vs %q", d.Text(), docs[0].Text())
		}
		for i := 1; i < len(d.atoms); i++ {
			if d.atoms[i-1].pid.Compare(d.atoms[i].pid) >= 0 {
				t.Fatalf("atom order broken at %d", i)
			}
		}
	}
}

func TestPidBetweenOrdering(t *testing.T) {
	d := NewDoc(7)
	// Repeated front inserts force descent into deeper identifier digits.
	for i := 0; i < 100; i++ {
		d.InsertAt(0, "x")
	}
	for i := 1; i < len(d.atoms); i++ {
		if d.atoms[i-1].pid.Compare(d.atoms[i].pid) >= 0 {
			t.Fatalf("atom order broken at %d", i)
		}
	}
}
