package handlers

import (
	"context"
	"net/http"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/services"
)

type QueueHandler struct {
	queueService services.QueueService
}

func NewQueueHandler(queueService services.QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

// ListHandler handles GET /events/{eventID}/queue.
func (h *QueueHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	items, err := h.queueService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"queue": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PopulateFromBracketHandler handles POST /events/{eventID}/queue/populate/bracket.
func (h *QueueHandler) PopulateFromBracketHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		BracketID int `json:"bracket_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.queueService.PopulateFromBracket(r.Context(), eventID, input.BracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PopulateFromSeedingHandler handles POST /events/{eventID}/queue/populate/seeding.
func (h *QueueHandler) PopulateFromSeedingHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.queueService.PopulateFromSeeding(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddHandler handles POST /events/{eventID}/queue.
func (h *QueueHandler) AddHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AddQueueItemInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.EventID = eventID

	item, err := h.queueService.Add(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReorderHandler handles PUT /events/{eventID}/queue/order.
func (h *QueueHandler) ReorderHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Items []services.ReorderItem `json:"items"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	items, err := h.queueService.Reorder(r.Context(), eventID, input.Items)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"queue": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CallHandler handles POST /queue/{itemID}/call.
func (h *QueueHandler) CallHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TableNumber *string `json:"table_number"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	item, err := h.queueService.Call(r.Context(), id, input.TableNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UncallHandler handles POST /queue/{itemID}/uncall.
func (h *QueueHandler) UncallHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.Uncall)
}

// SkipHandler handles POST /queue/{itemID}/skip.
func (h *QueueHandler) SkipHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.Skip)
}

// CompleteHandler handles POST /queue/{itemID}/complete.
func (h *QueueHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.Complete)
}

func (h *QueueHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id int) (*models.QueueItem, error),
) {
	id, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	item, err := fn(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
