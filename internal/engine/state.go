package engine

import "time"

type GameType string

const (
	Game501       GameType = "501"
	Game301       GameType = "301"
	GameGotcha    GameType = "gotcha"
	GameCricket   GameType = "cricket"
	GameTicTacToe GameType = "tictactoe"
)

type Multiplier string

const (
	Single     Multiplier = "S"
	Double     Multiplier = "D"
	Triple     Multiplier = "T"
	SingleBull Multiplier = "SB"
	DoubleBull Multiplier = "DB"
	Miss       Multiplier = "OUT"
)

// Options are fixed once a match starts.
type Options struct {
	StartingScore int
	DoubleIn      bool
	DoubleOut     bool
	Legs          int
	Sets          int
	MarksToWin    int // tictactoe: hits needed to claim a square
}

// DefaultOptions returns the option defaults for a game type. Changing the
// variant in a lobby resets options through this.
func DefaultOptions(gt GameType) Options {
	switch gt {
	case Game501:
		return Options{StartingScore: 501, DoubleOut: true, Legs: 1, Sets: 1}
	case Game301:
		return Options{StartingScore: 301, DoubleOut: true, Legs: 1, Sets: 1}
	case GameGotcha:
		return Options{StartingScore: 301, DoubleOut: true, Legs: 1, Sets: 1}
	case GameCricket:
		return Options{Legs: 1, Sets: 1}
	case GameTicTacToe:
		return Options{MarksToWin: 4, Legs: 1, Sets: 1}
	default:
		return Options{Legs: 1, Sets: 1}
	}
}

// Dart is one scoring event. Points, Marks, Bonus and Hits are filled in by
// the engine when the dart is applied; they make undo an exact inverse.
type Dart struct {
	ID         string
	Multiplier Multiplier
	Value      int
	Points     int
	Marks      int // cricket: marks this dart actually added
	Bonus      int // cricket: bonus points this dart scored
	Hits       int // tictactoe: hits this dart added
	Square     int // tictactoe: square index hit, -1 if none
	Timestamp  time.Time
}

// Points derives the score value of a dart for a game type. Both bull tiers
// are worth 50 in the countdown variants.
func Points(gt GameType, m Multiplier, value int) int {
	switch m {
	case Single:
		return value
	case Double:
		return value * 2
	case Triple:
		return value * 3
	case SingleBull:
		if gt == Game501 || gt == Game301 || gt == GameGotcha {
			return 50
		}
		return 25
	case DoubleBull:
		return 50
	default:
		return 0
	}
}

func (m Multiplier) isDouble() bool { return m == Double || m == DoubleBull }

// marks per dart for cricket / hit weighting for tictactoe
func (m Multiplier) weight() int {
	switch m {
	case Double, DoubleBull:
		return 2
	case Triple:
		return 3
	case Miss:
		return 0
	default:
		return 1
	}
}

type Stats struct {
	DartsThrown  int
	TotalPoints  int
	HighestRound int
	Checkouts    int
	Busts        int
}

type PlayerState struct {
	PlayerID    string
	DisplayName string
	Score       int
	LegsWon     int
	SetsWon     int
	DoubledIn   bool
	RoundDarts  []Dart
	AllDarts    []Dart
	Stats       Stats
	TeamID      string
	ColorIndex  int
}

type TeamState struct {
	TeamID      string
	Name        string
	ColorID     string
	PlayerIDs   []string
	Score       int
	LegsWon     int
	SetsWon     int
	DoubledIn   bool
	MemberIndex int // whose turn it is within the team
}

type TurnState struct {
	PlayerID   string
	Darts      [3]*Dart
	Bust       bool
	RoundScore int
}

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// VariantState is the closed set of variant-specific payloads.
type VariantState interface{ isVariantState() }

type CricketState struct {
	Marks    map[int]map[string]int // segment -> player -> marks (0-3)
	ClosedBy map[int]string         // segment -> first closer, "" while open
	Scores   map[string]int         // bonus points
}

func (*CricketState) isVariantState() {}

type Square struct {
	Owner string
	Hits  map[string]int
}

type BoardState struct {
	Squares  [9]Square // row-major 3x3
	Segments [9]int    // segment bound to each square
	Winner   string
}

func (*BoardState) isVariantState() {}

type State struct {
	GameType GameType
	Options  Options

	CurrentPlayerID string
	CurrentIndex    int

	Turn TurnState

	Players     map[string]*PlayerState
	PlayerOrder []string

	TeamMode    bool
	Teams       []*TeamState
	CurrentTeam int

	CurrentRound int
	CurrentLeg   int
	CurrentSet   int

	Phase        Phase
	WinnerID     string
	WinnerTeamID string

	Variant VariantState
}

// Player seeds a participant into a new match state.
type Player struct {
	ID          string
	DisplayName string
	TeamID      string
	ColorIndex  int
}

// Team seeds a team shell into a new match state.
type Team struct {
	ID        string
	Name      string
	ColorID   string
	PlayerIDs []string
}

// NewState builds the initial match state. The teams slice is nil in
// free-for-all mode.
func NewState(gt GameType, opts Options, players []Player, teams []Team) *State {
	states := make(map[string]*PlayerState, len(players))
	order := make([]string, 0, len(players))
	for _, p := range players {
		order = append(order, p.ID)
		states[p.ID] = &PlayerState{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       initialScore(gt, opts),
			DoubledIn:   !opts.DoubleIn,
			TeamID:      p.TeamID,
			ColorIndex:  p.ColorIndex,
		}
	}

	s := &State{
		GameType:     gt,
		Options:      opts,
		Players:      states,
		PlayerOrder:  order,
		CurrentRound: 1,
		CurrentLeg:   1,
		CurrentSet:   1,
		Phase:        PhaseWaiting,
	}

	first := order[0]
	if len(teams) > 0 {
		s.TeamMode = true
		for _, t := range teams {
			s.Teams = append(s.Teams, &TeamState{
				TeamID:    t.ID,
				Name:      t.Name,
				ColorID:   t.ColorID,
				PlayerIDs: append([]string(nil), t.PlayerIDs...),
				Score:     initialScore(gt, opts),
				DoubledIn: !opts.DoubleIn,
			})
		}
		first = s.Teams[0].PlayerIDs[0]
	}

	s.CurrentPlayerID = first
	s.CurrentIndex = indexOf(order, first)
	s.Turn = TurnState{PlayerID: first}
	s.Variant = newVariantState(gt, order)
	return s
}

// initialScore is the per-variant starting value: x01 counts down from the
// target, gotcha counts up from zero, the mark games keep score elsewhere.
func initialScore(gt GameType, opts Options) int {
	if gt == Game501 || gt == Game301 {
		if opts.StartingScore > 0 {
			return opts.StartingScore
		}
		return 501
	}
	return 0
}

func newVariantState(gt GameType, order []string) VariantState {
	switch gt {
	case GameCricket:
		return newCricketState(order)
	case GameTicTacToe:
		return newBoardState(order)
	default:
		return nil
	}
}

func (s *State) team(playerID string) *TeamState {
	if !s.TeamMode {
		return nil
	}
	for _, t := range s.Teams {
		for _, id := range t.PlayerIDs {
			if id == playerID {
				return t
			}
		}
	}
	return nil
}

func indexOf(order []string, id string) int {
	for i, o := range order {
		if o == id {
			return i
		}
	}
	return 0
}
