package domain

// Team names one side of the partnership split.
type Team string

const (
	TrumpTeam    Team = "trump_team"
	OpponentTeam Team = "opponent_team"
)

// CrossStartTotal is the countdown each side begins a cross from.
const CrossStartTotal = 24

// hookTotal is the remaining total at which a side is "on the hook".
const hookTotal = 6

// CrossState tracks the rubber countdown across games of one match.
type CrossState struct {
	MatchID               string `json:"match_id"`
	TrumpTeamRemaining    int    `json:"trump_team_remaining"`
	OpponentTeamRemaining int    `json:"opponent_team_remaining"`
	TrumpTeamCrosses      int    `json:"trump_team_crosses"`
	OpponentTeamCrosses   int    `json:"opponent_team_crosses"`
	NextGameBonus         int    `json:"next_game_bonus"`
	TargetCrosses         int    `json:"target_crosses"`
	RubberComplete        bool   `json:"rubber_complete"`
}

// NewCrossState starts a rubber; targetCrosses below 1 defaults to 1.
func NewCrossState(matchID string, targetCrosses int) *CrossState {
	if targetCrosses < 1 {
		targetCrosses = 1
	}
	return &CrossState{
		MatchID:               matchID,
		TrumpTeamRemaining:    CrossStartTotal,
		OpponentTeamRemaining: CrossStartTotal,
		TargetCrosses:         targetCrosses,
	}
}

// CrossOutcome describes what one scored game did to the rubber.
type CrossOutcome struct {
	TrumpDelta    int  `json:"trump_team_delta"`
	OpponentDelta int  `json:"opponent_team_delta"`
	BonusApplied  int  `json:"bonus_applied"`
	CrossWon      bool `json:"cross_won"`
	Winner        Team `json:"winner,omitempty"`
	DoubleVictory bool `json:"double_victory"`
	RubberDone    bool `json:"rubber_complete"`
}

// ApplyGameResult folds a scored game into the countdown. Ties bank a +2
// bonus; the next decisive game's winner consumes the whole bank. Reaching
// zero or below wins a cross; a double victory means the loser never scored.
func (s *CrossState) ApplyGameResult(res GameResult) CrossOutcome {
	if res.IsTie {
		s.NextGameBonus += 2
		return CrossOutcome{}
	}

	bonus := s.NextGameBonus
	s.NextGameBonus = 0

	trumpDelta, opponentDelta := res.TrumpDelta, res.OpponentDelta
	if trumpDelta > 0 {
		trumpDelta += bonus
	} else if opponentDelta > 0 {
		opponentDelta += bonus
	}

	out := CrossOutcome{TrumpDelta: trumpDelta, OpponentDelta: opponentDelta, BonusApplied: bonus}

	s.TrumpTeamRemaining -= trumpDelta
	s.OpponentTeamRemaining -= opponentDelta

	switch {
	case s.TrumpTeamRemaining <= 0:
		s.TrumpTeamCrosses++
		out.CrossWon = true
		out.Winner = TrumpTeam
		out.DoubleVictory = s.OpponentTeamRemaining == CrossStartTotal
	case s.OpponentTeamRemaining <= 0:
		s.OpponentTeamCrosses++
		out.CrossWon = true
		out.Winner = OpponentTeam
		out.DoubleVictory = s.TrumpTeamRemaining == CrossStartTotal
	}

	if out.CrossWon {
		if s.TrumpTeamCrosses >= s.TargetCrosses || s.OpponentTeamCrosses >= s.TargetCrosses {
			s.RubberComplete = true
		} else {
			// Next cross starts fresh.
			s.TrumpTeamRemaining = CrossStartTotal
			s.OpponentTeamRemaining = CrossStartTotal
		}
	}
	out.RubberDone = s.RubberComplete
	return out
}

// OnTheHook reports whether the side sits at exactly six remaining.
func (s *CrossState) OnTheHook(team Team) bool {
	switch team {
	case TrumpTeam:
		return s.TrumpTeamRemaining == hookTotal
	case OpponentTeam:
		return s.OpponentTeamRemaining == hookTotal
	}
	return false
}

// CrossSummary is the client-facing view of the rubber.
type CrossSummary struct {
	TrumpTeamRemaining    int  `json:"trump_team_remaining"`
	OpponentTeamRemaining int  `json:"opponent_team_remaining"`
	TrumpTeamCrosses      int  `json:"trump_team_crosses"`
	OpponentTeamCrosses   int  `json:"opponent_team_crosses"`
	NextGameBonus         int  `json:"next_game_bonus"`
	TrumpTeamOnHook       bool `json:"trump_team_on_hook"`
	OpponentTeamOnHook    bool `json:"opponent_team_on_hook"`
	RubberComplete        bool `json:"rubber_complete"`
}

// Summary snapshots the countdown for broadcast.
func (s *CrossState) Summary() CrossSummary {
	return CrossSummary{
		TrumpTeamRemaining:    s.TrumpTeamRemaining,
		OpponentTeamRemaining: s.OpponentTeamRemaining,
		TrumpTeamCrosses:      s.TrumpTeamCrosses,
		OpponentTeamCrosses:   s.OpponentTeamCrosses,
		NextGameBonus:         s.NextGameBonus,
		TrumpTeamOnHook:       s.OnTheHook(TrumpTeam),
		OpponentTeamOnHook:    s.OnTheHook(OpponentTeam),
		RubberComplete:        s.RubberComplete,
	}
}
