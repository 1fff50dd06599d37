package engine

// throwGotcha applies a dart in the reverse-countdown variant. Scores climb
// toward the target; overshooting resets the side to the fallback value,
// and landing exactly on another side's total resets that side to zero.
func (s *State) throwGotcha(playerID string, d Dart) Outcome {
	if consumed, out := s.checkDoubleIn(playerID, d); consumed {
		return out
	}

	target := s.Options.StartingScore
	if target <= 0 {
		target = 301
	}
	fallback := target - 100

	score := s.sideScore(playerID)
	newScore := score + d.Points

	if newScore > target {
		return s.bustGotcha(playerID, d, fallback, "bust, back to fallback")
	}

	// Capture: landing exactly on another side's current total zeroes that
	// side. Skipped when the collision value is the fallback itself, so a
	// fresh bust cannot be captured over and over.
	var captures []Capture
	if s.TeamMode {
		actor := s.team(playerID)
		for _, other := range s.Teams {
			if other != actor && other.Score == newScore && newScore != fallback {
				other.Score = 0
				captures = append(captures, Capture{TeamID: other.TeamID, Name: other.Name})
			}
		}
	} else {
		for _, otherID := range s.PlayerOrder {
			if otherID == playerID {
				continue
			}
			other := s.Players[otherID]
			if other.Score == newScore && newScore != fallback {
				other.Score = 0
				captures = append(captures, Capture{PlayerID: otherID, Name: other.DisplayName})
			}
		}
	}

	s.setSideScore(playerID, newScore)
	s.addDart(playerID, d)

	if newScore == target {
		if s.Options.DoubleOut && !d.Multiplier.isDouble() {
			// illegal finish counts as a bust, not a score change
			ps := s.Players[playerID]
			s.setSideScore(playerID, fallback)
			ps.Stats.Busts++
			s.Turn.Bust = true
			s.endTurn(playerID)
			return Outcome{Bust: true, Message: "must finish on a double"}
		}
		out := s.handleCheckout(playerID)
		out.Captures = captures
		return out
	}

	s.autoEndTurn(playerID)
	if len(captures) > 0 {
		return Outcome{Captures: captures, Message: "gotcha"}
	}
	return Outcome{}
}

// bustGotcha parks the side on the fallback value and ends the turn. The
// busting dart is recorded but its addition never sticks.
func (s *State) bustGotcha(playerID string, d Dart, fallback int, msg string) Outcome {
	ps := s.Players[playerID]
	s.setSideScore(playerID, fallback)
	s.addDart(playerID, d)
	ps.Stats.Busts++
	s.Turn.Bust = true
	s.endTurn(playerID)
	return Outcome{Bust: true, Message: msg}
}
