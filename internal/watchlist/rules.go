package watchlist

import (
	"time"

	"news-radar/internal/store"
	"news-radar/internal/types"
)

// Rules is the state table driving the watchlist lifecycle: per-state check
// cadence and decay window, loaded from config. Attention only ever decays
// one way (HOT -> WARM -> COOL); re-promotion is the only way back up.
type Rules struct {
	Check          map[types.State]time.Duration
	Decay          map[types.State]time.Duration
	CoolAutoRemove bool
}

func RulesFromConfig(cfg *store.Config) Rules {
	st := cfg.Watchlist.States
	return Rules{
		Check: map[types.State]time.Duration{
			types.StateHot:  st.Hot.CheckInterval(),
			types.StateWarm: st.Warm.CheckInterval(),
			types.StateCool: st.Cool.CheckInterval(),
		},
		Decay: map[types.State]time.Duration{
			types.StateHot:  st.Hot.DecayAfter(),
			types.StateWarm: st.Warm.DecayAfter(),
			types.StateCool: st.Cool.DecayAfter(),
		},
		CoolAutoRemove: cfg.Watchlist.CoolAutoRemove,
	}
}

func (r Rules) nextState(s types.State) (types.State, bool) {
	switch s {
	case types.StateHot:
		return types.StateWarm, true
	case types.StateWarm:
		return types.StateCool, true
	case types.StateCool:
		if r.CoolAutoRemove {
			return types.StateRemoved, true
		}
	}
	return s, false
}

// applyDecay walks an entry forward through however many decay windows have
// elapsed since its last state change. Each step consumes exactly its own
// window, so an entry found long overdue lands in the state it would have
// reached had it been checked on time.
func (r Rules) applyDecay(state types.State, changedAt, now time.Time) (types.State, time.Time) {
	for state != types.StateRemoved {
		window := r.Decay[state]
		if window <= 0 || now.Sub(changedAt) < window {
			break
		}
		next, ok := r.nextState(state)
		if !ok {
			break
		}
		changedAt = changedAt.Add(window)
		state = next
	}
	return state, changedAt
}
