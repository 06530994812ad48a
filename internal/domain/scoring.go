package domain

import "fmt"

// ResultKind classifies the outcome of one eight-trick game.
type ResultKind string

const (
	ResultVol           ResultKind = "vol"
	ResultIndividualVol ResultKind = "individual_vol"
	ResultOpponentVol   ResultKind = "opponent_vol"
	ResultTie           ResultKind = "tie"
	ResultTrumpWin      ResultKind = "trump_team_win"
	ResultOpponentWin   ResultKind = "opponent_team_win"
)

// GameResult is a scored game expressed as Cross deltas per side.
type GameResult struct {
	TrumpDelta    int        `json:"trump_team_delta"`
	OpponentDelta int        `json:"opponent_team_delta"`
	Kind          ResultKind `json:"result_kind"`
	Description   string     `json:"description"`
	IndividualVol bool       `json:"individual_vol"`
	IsTie         bool       `json:"is_tie"`
}

// CalculateGameResult applies the Sjavs scoring table. Clubs trump doubles
// the winning side's delta except on an opponent Vol, which is a flat 16.
func CalculateGameResult(trumpPoints, opponentPoints, trumpTricks, opponentTricks int, trumpSuit Suit, individualVol bool) (GameResult, error) {
	if trumpPoints+opponentPoints != 120 {
		return GameResult{}, fmt.Errorf("game points sum to %d, want 120", trumpPoints+opponentPoints)
	}
	if trumpTricks+opponentTricks != 8 {
		return GameResult{}, fmt.Errorf("trick counts sum to %d, want 8", trumpTricks+opponentTricks)
	}

	c := 1
	if trumpSuit == Clubs {
		c = 2
	}

	switch {
	case trumpTricks == 8:
		if individualVol {
			return GameResult{
				TrumpDelta:    16 * c,
				Kind:          ResultIndividualVol,
				Description:   "one player won every trick",
				IndividualVol: true,
			}, nil
		}
		return GameResult{
			TrumpDelta:  12 * c,
			Kind:        ResultVol,
			Description: "trump team won every trick",
		}, nil
	case opponentTricks == 8:
		return GameResult{
			OpponentDelta: 16,
			Kind:          ResultOpponentVol,
			Description:   "opponents won every trick",
		}, nil
	case trumpPoints == 60:
		return GameResult{
			Kind:        ResultTie,
			Description: "60-60 tie, bonus carried to the next game",
			IsTie:       true,
		}, nil
	case trumpPoints >= 90:
		return GameResult{
			TrumpDelta:  4 * c,
			Kind:        ResultTrumpWin,
			Description: fmt.Sprintf("trump team won with %d points", trumpPoints),
		}, nil
	case trumpPoints >= 61:
		return GameResult{
			TrumpDelta:  2 * c,
			Kind:        ResultTrumpWin,
			Description: fmt.Sprintf("trump team won with %d points", trumpPoints),
		}, nil
	case trumpPoints >= 31:
		return GameResult{
			OpponentDelta: 4 * c,
			Kind:          ResultOpponentWin,
			Description:   fmt.Sprintf("opponents won, trump team held to %d points", trumpPoints),
		}, nil
	default:
		return GameResult{
			OpponentDelta: 8 * c,
			Kind:          ResultOpponentWin,
			Description:   fmt.Sprintf("opponents won big, trump team held to %d points", trumpPoints),
		}, nil
	}
}
