package solving

import (
	"github.com/johanlindblad/resolution-graph-tool/proof"
	"github.com/rhartert/yagh"
)

// varOrder selects the next decision variable by VSIDS-style activity,
// backed by an indexed priority-queue heap for fast rescoring.
type varOrder struct {
	heap *yagh.IntMap[float64]

	scores   []float64
	scoreInc float64
	decay    float64
}

func newVarOrder(decay float64) *varOrder {
	return &varOrder{
		heap:     yagh.New[float64](0),
		scoreInc: 1,
		decay:    decay,
	}
}

func (vo *varOrder) addVar() {
	v := len(vo.scores)
	vo.scores = append(vo.scores, 0)
	vo.heap.GrowBy(1)
	vo.heap.Put(v, 0)
}

func (vo *varOrder) reinsert(v int) {
	vo.heap.Put(v, -vo.scores[v])
}

func (vo *varOrder) decayActivity() {
	vo.scoreInc /= vo.decay
	if vo.scoreInc > 1e100 {
		vo.rescale()
	}
}

func (vo *varOrder) bump(v int) {
	vo.scores[v] += vo.scoreInc
	if vo.heap.Contains(v) {
		vo.heap.Put(v, -vo.scores[v])
	}
	if vo.scores[v] > 1e100 {
		vo.rescale()
	}
}

func (vo *varOrder) rescale() {
	vo.scoreInc *= 1e-100
	for v, sc := range vo.scores {
		vo.scores[v] = sc * 1e-100
		if vo.heap.Contains(v) {
			vo.heap.Put(v, -vo.scores[v])
		}
	}
}

// next pops the highest-activity unassigned variable and returns its
// positive literal (the solver always decides variables to true first; it
// never needs phase saving for the proofs this tool analyzes).
func (vo *varOrder) next(s *Solver) (proof.Literal, bool) {
	for {
		item, ok := vo.heap.Pop()
		if !ok {
			return proof.Literal{}, false
		}
		if item.Elem == 0 || s.varValue(item.Elem) != lUnknown {
			continue
		}
		return proof.Positive(item.Elem), true
	}
}
