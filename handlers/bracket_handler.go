package handlers

import (
	"net/http"
	"strconv"

	"github.com/kipr/colosseum-sub001/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// CreateHandler handles POST /brackets. Team overlaps with other active
// brackets come back as a 409 with the structured conflict list.
func (h *BracketHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDetailHandler handles GET /brackets/{bracketID}.
func (h *BracketHandler) GetDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.bracketService.GetDetail(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByEventHandler handles GET /events/{eventID}/brackets.
func (h *BracketHandler) ListByEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	list, err := h.bracketService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateEntriesHandler handles POST /brackets/{bracketID}/entries?force=true.
func (h *BracketHandler) GenerateEntriesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.GenerateEntries(r.Context(), id, forceParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateGamesHandler handles POST /brackets/{bracketID}/games?force=true.
func (h *BracketHandler) GenerateGamesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.GenerateGames(r.Context(), id, forceParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func forceParam(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	return force
}
