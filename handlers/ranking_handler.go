package handlers

import (
	"net/http"

	"github.com/kipr/colosseum-sub001/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rankingService services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// UpsertScoreHandler handles PUT /seeding/scores.
func (h *RankingHandler) UpsertScoreHandler(w http.ResponseWriter, r *http.Request) {
	var input services.UpsertScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	score, err := h.rankingService.UpsertScore(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListScoresHandler handles GET /events/{eventID}/seeding/scores.
func (h *RankingHandler) ListScoresHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.rankingService.ListScores(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecalculateHandler handles POST /events/{eventID}/rankings/recalculate.
func (h *RankingHandler) RecalculateHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rankingService.Recalculate(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRankingsHandler handles GET /events/{eventID}/rankings.
func (h *RankingHandler) ListRankingsHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rankingService.ListRankings(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
