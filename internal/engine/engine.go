package engine

import "errors"

var ErrNotPlaying = errors.New("game is not in playing state")
var ErrAlreadyStarted = errors.New("game has already started")
var ErrFinished = errors.New("game already finished")
var ErrNotYourTurn = errors.New("not your turn")
var ErrTurnComplete = errors.New("turn already has 3 darts")
var ErrUnknownGame = errors.New("unknown game type")

// Capture records a gotcha reset of another side.
type Capture struct {
	PlayerID string
	TeamID   string
	Name     string
}

// Outcome describes what an accepted dart did. Busts and illegal finishes
// are outcomes, not errors.
type Outcome struct {
	Bust         bool
	Checkout     bool
	LegWon       bool
	SetWon       bool
	GameOver     bool
	MustDoubleIn bool
	Captures     []Capture
	Message      string
}

// Start moves the match from waiting to playing. Exactly once.
func (s *State) Start() error {
	if s.Phase != PhaseWaiting {
		return ErrAlreadyStarted
	}
	s.Phase = PhasePlaying
	return nil
}

// Throw applies one dart for playerID. It is total for well-typed input:
// precondition violations come back as sentinel errors with no state
// change, rule outcomes (bust, checkout) as Outcome flags.
func (s *State) Throw(playerID string, d Dart) (Outcome, error) {
	if s.Phase == PhaseFinished {
		return Outcome{}, ErrFinished
	}
	if s.Phase != PhasePlaying {
		return Outcome{}, ErrNotPlaying
	}
	if playerID != s.CurrentPlayerID {
		return Outcome{}, ErrNotYourTurn
	}
	if len(s.Players[playerID].RoundDarts) >= 3 {
		return Outcome{}, ErrTurnComplete
	}

	d.Points = Points(s.GameType, d.Multiplier, d.Value)
	d.Square = -1

	switch s.GameType {
	case Game501, Game301:
		return s.throwX01(playerID, d), nil
	case GameGotcha:
		return s.throwGotcha(playerID, d), nil
	case GameCricket:
		return s.throwCricket(playerID, d), nil
	case GameTicTacToe:
		return s.throwTicTacToe(playerID, d), nil
	default:
		return Outcome{}, ErrUnknownGame
	}
}

// EndTurn flushes the current turn and rotates to the next actor.
func (s *State) EndTurn(playerID string) error {
	if s.Phase == PhaseFinished {
		return ErrFinished
	}
	if s.Phase != PhasePlaying {
		return ErrNotPlaying
	}
	if playerID != s.CurrentPlayerID {
		return ErrNotYourTurn
	}
	s.endTurn(playerID)
	return nil
}

// addDart records a dart in the player history and the turn slots.
func (s *State) addDart(playerID string, d Dart) {
	ps := s.Players[playerID]
	ps.RoundDarts = append(ps.RoundDarts, d)
	ps.AllDarts = append(ps.AllDarts, d)
	ps.Stats.DartsThrown++
	ps.Stats.TotalPoints += d.Points

	if i := len(ps.RoundDarts) - 1; i < 3 {
		dart := d
		s.Turn.Darts[i] = &dart
		s.Turn.RoundScore += d.Points
	}
}

// sideScore reads the acting side's score: the team aggregate in team mode,
// the player score otherwise.
func (s *State) sideScore(playerID string) int {
	if t := s.team(playerID); t != nil {
		return t.Score
	}
	return s.Players[playerID].Score
}

func (s *State) setSideScore(playerID string, score int) {
	if t := s.team(playerID); t != nil {
		t.Score = score
		return
	}
	s.Players[playerID].Score = score
}

func (s *State) sideDoubledIn(playerID string) bool {
	if t := s.team(playerID); t != nil {
		return t.DoubledIn
	}
	return s.Players[playerID].DoubledIn
}

func (s *State) setSideDoubledIn(playerID string) {
	if t := s.team(playerID); t != nil {
		t.DoubledIn = true
		return
	}
	s.Players[playerID].DoubledIn = true
}

// checkDoubleIn handles the double-in gate shared by x01 and gotcha. The
// dart is consumed (recorded with zero points) when the side has not yet
// doubled in and this dart is not a double.
func (s *State) checkDoubleIn(playerID string, d Dart) (consumed bool, out Outcome) {
	if !s.Options.DoubleIn || s.sideDoubledIn(playerID) {
		return false, Outcome{}
	}
	if d.Multiplier.isDouble() {
		s.setSideDoubledIn(playerID)
		return false, Outcome{}
	}
	d.Points = 0
	s.addDart(playerID, d)
	s.autoEndTurn(playerID)
	return true, Outcome{MustDoubleIn: true, Message: "must double in"}
}

func (s *State) autoEndTurn(playerID string) {
	if len(s.Players[playerID].RoundDarts) >= 3 {
		s.endTurn(playerID)
	}
}

// handleCheckout runs the leg -> set -> match ladder after a legal finish.
func (s *State) handleCheckout(playerID string) Outcome {
	ps := s.Players[playerID]
	t := s.team(playerID)
	ps.Stats.Checkouts++

	if t != nil {
		t.LegsWon++
	} else {
		ps.LegsWon++
	}

	out := Outcome{Checkout: true, LegWon: true}

	legsToWin := max(s.Options.Legs, 1)
	setsToWin := max(s.Options.Sets, 1)

	legsWon := ps.LegsWon
	if t != nil {
		legsWon = t.LegsWon
	}
	if legsWon >= legsToWin {
		if t != nil {
			t.SetsWon++
		} else {
			ps.SetsWon++
		}
		out.SetWon = true

		setsWon := ps.SetsWon
		if t != nil {
			setsWon = t.SetsWon
		}
		if setsWon >= setsToWin {
			s.WinnerID = playerID
			if t != nil {
				s.WinnerTeamID = t.TeamID
			}
			s.Phase = PhaseFinished
			out.GameOver = true
			return out
		}

		// reset legs for the next set
		for _, team := range s.Teams {
			team.LegsWon = 0
		}
		if t == nil {
			for _, pid := range s.PlayerOrder {
				s.Players[pid].LegsWon = 0
			}
		}
		s.CurrentSet++
	}

	s.startNewLeg()
	return out
}

// startNewLeg resets scores, entry flags, rotation and variant state. The
// reset value is per-variant (x01 back to the start score, gotcha to zero).
func (s *State) startNewLeg() {
	s.CurrentLeg++

	for _, t := range s.Teams {
		t.Score = initialScore(s.GameType, s.Options)
		t.DoubledIn = !s.Options.DoubleIn
		t.MemberIndex = 0
	}
	for _, pid := range s.PlayerOrder {
		ps := s.Players[pid]
		ps.Score = initialScore(s.GameType, s.Options)
		ps.DoubledIn = !s.Options.DoubleIn
		ps.RoundDarts = nil
	}

	if s.TeamMode {
		s.CurrentTeam = 0
		s.CurrentPlayerID = s.Teams[0].PlayerIDs[0]
	} else {
		s.CurrentPlayerID = s.PlayerOrder[0]
	}
	s.CurrentIndex = indexOf(s.PlayerOrder, s.CurrentPlayerID)
	s.Turn = TurnState{PlayerID: s.CurrentPlayerID}
	s.CurrentRound = 1
	s.Variant = newVariantState(s.GameType, s.PlayerOrder)
}
