// services/gate.go
package services

// Gate is the approval gate: a pure predicate deciding whether an actor
// may resolve payments and withdrawals. The privileged set is fixed at
// construction; the gate holds no other state.
type Gate struct {
	admins map[int64]struct{}
}

func NewGate(adminIDs []int64) *Gate {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Gate{admins: admins}
}

// IsAdmin reports whether the actor belongs to the privileged set.
func (g *Gate) IsAdmin(actorID int64) bool {
	_, ok := g.admins[actorID]
	return ok
}
