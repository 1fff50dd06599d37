package engine

// throwX01 applies a dart in 501/301. Scores count down; the turn busts on
// going below zero, landing on 1 with double-out, or finishing on a
// non-double with double-out.
func (s *State) throwX01(playerID string, d Dart) Outcome {
	if consumed, out := s.checkDoubleIn(playerID, d); consumed {
		return out
	}

	score := s.sideScore(playerID)
	newScore := score - d.Points

	if newScore < 0 ||
		(newScore == 1 && s.Options.DoubleOut) ||
		(newScore == 0 && s.Options.DoubleOut && !d.Multiplier.isDouble()) {
		return s.bustX01(playerID, d)
	}

	s.setSideScore(playerID, newScore)
	s.addDart(playerID, d)

	if newScore == 0 {
		return s.handleCheckout(playerID)
	}

	s.autoEndTurn(playerID)
	return Outcome{}
}

// bustX01 reverts every deduction this turn made, records the busting dart
// (which never scored) and ends the turn.
func (s *State) bustX01(playerID string, d Dart) Outcome {
	ps := s.Players[playerID]

	reverted := 0
	for _, prev := range ps.RoundDarts {
		reverted += prev.Points
	}
	s.setSideScore(playerID, s.sideScore(playerID)+reverted)

	s.addDart(playerID, d)
	ps.Stats.Busts++
	s.Turn.Bust = true
	s.endTurn(playerID)
	return Outcome{Bust: true, Message: "bust"}
}
