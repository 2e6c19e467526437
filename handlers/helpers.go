package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s URL parameter", param)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message interface{}) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

// mapServiceErrorToHTTP translates service and engine sentinels into HTTP
// responses. The team-conflict error carries its structured pair list so the
// caller can render exactly which teams overlap.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var teamConflict *services.TeamConflictError
	if errors.As(err, &teamConflict) {
		conflictResponse(w, r, jsonResponse{
			"message":   teamConflict.Error(),
			"conflicts": teamConflict.Conflicts,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrBracketNotFound),
		errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrQueueItemNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, brackets.ErrGameNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrBracketNameConflict),
		errors.Is(err, services.ErrTeamNumberConflict),
		errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, brackets.ErrDownstreamResolved):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrEventNameRequired),
		errors.Is(err, services.ErrBracketNameRequired),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrInvalidSeedingRound),
		errors.Is(err, services.ErrInvalidBracketSize),
		errors.Is(err, services.ErrNoTeamsSelected),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, brackets.ErrWinnerNotInGame):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrEventNotInSetup),
		errors.Is(err, services.ErrBracketNotInSetup),
		errors.Is(err, services.ErrBracketNotInProgress),
		errors.Is(err, services.ErrBracketHasEntries),
		errors.Is(err, services.ErrBracketHasGames),
		errors.Is(err, services.ErrBracketEntriesMissing),
		errors.Is(err, services.ErrInvalidStatusChange),
		errors.Is(err, services.ErrQueueItemNotQueued),
		errors.Is(err, services.ErrQueueItemNotCalled),
		errors.Is(err, brackets.ErrGameNotScoreable),
		errors.Is(err, brackets.ErrSlotsUnresolved),
		errors.Is(err, brackets.ErrSlotConflict):
		unprocessableResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
