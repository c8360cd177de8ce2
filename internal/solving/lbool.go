package solving

// lbool is a lifted boolean: true, false, or unknown (unassigned).
type lbool int8

const (
	lUnknown lbool = 0
	lTrue    lbool = 1
	lFalse   lbool = -1
)

func (b lbool) opposite() lbool { return -b }

func lift(b bool) lbool {
	if b {
		return lTrue
	}
	return lFalse
}
