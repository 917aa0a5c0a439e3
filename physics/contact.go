package physics

// ContactPhase tells whether two bodies started or stopped touching.
type ContactPhase int

const (
	ContactBegin ContactPhase = iota
	ContactEnd
)

func (p ContactPhase) String() string {
	if p == ContactBegin {
		return "begin"
	}
	return "end"
}

// Contact is reported once per body pair when the first shape pair starts
// touching and once when the last one separates.
type Contact struct {
	Phase ContactPhase
	A, B  uint64
}

type pair struct {
	a, b uint64
}

func makePair(a, b uint64) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a: a, b: b}
}

func (p pair) has(id uint64) bool {
	return p.a == id || p.b == id
}

func (p pair) other(id uint64) uint64 {
	if p.a == id {
		return p.b
	}
	return p.a
}
