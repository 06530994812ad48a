package app

import (
	"errors"
	"net/http"

	"sjavs/internal/domain"
)

var (
	ErrNotAuthenticated = errors.New("missing or invalid credentials")
	ErrMalformedRequest = errors.New("malformed request")
	ErrInvalidPin       = errors.New("no active match with that pin")
	ErrNotInGame        = errors.New("user is not in a match")
	ErrAlreadyInGame    = errors.New("user is already in a match")
	ErrMatchNotFound    = errors.New("match not found")
	ErrInfrastructure   = errors.New("infrastructure unavailable")
)

// Code returns the stable error code carried in command responses.
func Code(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedCard):
		return "malformed_card"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrInvalidPin):
		return "invalid_pin"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrNotInGame):
		return "not_in_game"
	case errors.Is(err, ErrAlreadyInGame):
		return "already_in_game"
	case errors.Is(err, domain.ErrNotHost):
		return "not_host"
	case errors.Is(err, domain.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrMatchNotFound):
		return "game_not_found"
	case errors.Is(err, domain.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, domain.ErrBiddingComplete):
		return "bidding_already_complete"
	case errors.Is(err, domain.ErrTrickAlreadyComplete):
		return "trick_already_complete"
	case errors.Is(err, domain.ErrGameAlreadyComplete):
		return "game_already_complete"
	case errors.Is(err, domain.ErrBidNotBetter), errors.Is(err, domain.ErrAlreadyPassed):
		return "bid_not_better"
	case errors.Is(err, domain.ErrBidExceedsActualTrumps):
		return "bid_exceeds_actual_trumps"
	case errors.Is(err, domain.ErrCardNotInHand):
		return "card_not_in_hand"
	case errors.Is(err, domain.ErrIllegalFollowSuit):
		return "illegal_follow_suit"
	case errors.Is(err, domain.ErrMatchFull):
		return "match_full"
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, domain.ErrDealingImpossible):
		return "dealing_impossible"
	default:
		return "infrastructure_unavailable"
	}
}

// HTTPStatus maps an error to its transport status code.
func HTTPStatus(err error) int {
	switch Code(err) {
	case "malformed_card", "malformed_request", "invalid_pin":
		return http.StatusBadRequest
	case "not_authenticated":
		return http.StatusUnauthorized
	case "not_your_turn", "not_host", "not_in_game", "illegal_follow_suit":
		return http.StatusForbidden
	case "game_not_found":
		return http.StatusNotFound
	case "wrong_phase", "bid_not_better", "bid_exceeds_actual_trumps",
		"bidding_already_complete", "trick_already_complete",
		"game_already_complete", "already_in_game", "match_full",
		"not_enough_players", "card_not_in_hand":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
