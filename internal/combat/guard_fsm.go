package combat

import (
	"context"

	"github.com/looplab/fsm"
)

// Guard states.
const (
	GuardIdle   = "idle_defense"
	GuardActive = "active_defense"
	GuardReturn = "return_to_post"
)

const (
	evThreat = "threat"
	evCalm   = "calm"
	evLeash  = "leash"
	evSettle = "settle"
)

func newGuardFSM() *fsm.FSM {
	return fsm.NewFSM(
		GuardIdle,
		fsm.Events{
			{Name: evThreat, Src: []string{GuardIdle, GuardReturn}, Dst: GuardActive},
			{Name: evCalm, Src: []string{GuardActive}, Dst: GuardIdle},
			{Name: evLeash, Src: []string{GuardActive}, Dst: GuardReturn},
			{Name: evSettle, Src: []string{GuardReturn}, Dst: GuardIdle},
		},
		fsm.Callbacks{},
	)
}

// fire attempts a transition and reports whether the state changed.
func (m *GuardMember) fire(event string) bool {
	if m.machine == nil || m.machine.Cannot(event) {
		return false
	}
	return m.machine.Event(context.Background(), event) == nil
}

// State is the member's current guard state.
func (m *GuardMember) State() string {
	if m == nil || m.machine == nil {
		return ""
	}
	return m.machine.Current()
}

// reset drops the member back to idle, used on respawn.
func (m *GuardMember) reset() {
	m.machine = newGuardFSM()
	m.LastThreatAt = 0
}
