package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/gateway"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/utils"
)

const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("empty request body")

type errorBody struct {
	Error string `json:"error,omitempty"`
}

type addedBody struct {
	gateway.AddedResponse
	errorBody
}

type deletedBody struct {
	gateway.DeletedResponse
	errorBody
}

type historyBody struct {
	gateway.HistoryResponse
	errorBody
}

type streakBody struct {
	gateway.StreakResponse
	errorBody
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "err", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// parseDates validates a {dates:[{date}]} document and reduces each entry
// to its calendar date.
func parseDates(req gateway.DatesRequest) ([]string, error) {
	if len(req.Dates) == 0 {
		return nil, errors.New("dates must be a non-empty list")
	}
	if len(req.Dates) > constants.MaxDatesPerRequest {
		return nil, fmt.Errorf("at most %d dates per request", constants.MaxDatesPerRequest)
	}
	days := make([]string, 0, len(req.Dates))
	for i, e := range req.Dates {
		if e.Date == "" {
			return nil, fmt.Errorf("dates[%d]: missing date", i)
		}
		d, err := utils.NormalizeDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("dates[%d]: %w", i, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func (s *Server) addDays(w http.ResponseWriter, r *http.Request) {
	habit := r.PathValue("habit")

	var req gateway.DatesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, addedBody{gateway.AddedResponse{Added: gateway.Int(0)}, errorBody{err.Error()}})
		return
	}
	days, err := parseDates(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, addedBody{gateway.AddedResponse{Added: gateway.Int(0)}, errorBody{err.Error()}})
		return
	}

	n, err := s.store.AddDays(habit, days)
	if err != nil {
		logger.Error("failed to add days", "habit", habit, "err", err)
		writeJSON(w, http.StatusInternalServerError, addedBody{gateway.AddedResponse{Added: gateway.Int(0)}, errorBody{"storage error"}})
		return
	}

	status := http.StatusOK
	if n > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, addedBody{AddedResponse: gateway.AddedResponse{Added: gateway.Int(n)}})
}

func (s *Server) deleteDays(w http.ResponseWriter, r *http.Request) {
	habit := r.PathValue("habit")

	var req gateway.DatesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, deletedBody{gateway.DeletedResponse{Deleted: gateway.Int(0)}, errorBody{err.Error()}})
		return
	}
	days, err := parseDates(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, deletedBody{gateway.DeletedResponse{Deleted: gateway.Int(0)}, errorBody{err.Error()}})
		return
	}

	n, err := s.store.DeleteDays(habit, days)
	if err != nil {
		logger.Error("failed to delete days", "habit", habit, "err", err)
		writeJSON(w, http.StatusInternalServerError, deletedBody{gateway.DeletedResponse{Deleted: gateway.Int(0)}, errorBody{"storage error"}})
		return
	}
	writeJSON(w, http.StatusOK, deletedBody{DeletedResponse: gateway.DeletedResponse{Deleted: gateway.Int(n)}})
}

// historyRequest reads the JSON body, falling back to query parameters
// for clients that cannot send a GET body.
func historyRequest(w http.ResponseWriter, r *http.Request) (gateway.HistoryRequest, error) {
	var req gateway.HistoryRequest
	err := decodeBody(w, r, &req)
	if errors.Is(err, errEmptyBody) {
		req.StartDate = r.URL.Query().Get("startDate")
		if c := r.URL.Query().Get("count"); c != "" {
			n, err := strconv.Atoi(c)
			if err != nil {
				return req, fmt.Errorf("count must be an integer")
			}
			req.Count = n
		}
		err = nil
	}
	if err != nil {
		return req, err
	}

	if req.StartDate == "" {
		return req, errors.New("startDate is required")
	}
	if req.StartDate, err = utils.NormalizeDate(req.StartDate); err != nil {
		return req, err
	}
	if req.Count < 0 || req.Count > constants.MaxHistoryCount {
		return req, fmt.Errorf("count must be between 0 and %d", constants.MaxHistoryCount)
	}
	return req, nil
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	habit := r.PathValue("habit")

	req, err := historyRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, historyBody{gateway.HistoryResponse{History: []gateway.HistoryEntry{}}, errorBody{err.Error()}})
		return
	}

	start, _ := utils.ParseDate(req.StartDate)
	from := start.AddDate(0, 0, -req.Count)

	stored, err := s.store.GetDays(habit, from.Format(constants.DateFormat), req.StartDate)
	if err != nil {
		logger.Error("failed to read history", "habit", habit, "err", err)
		writeJSON(w, http.StatusInternalServerError, historyBody{gateway.HistoryResponse{History: []gateway.HistoryEntry{}}, errorBody{"storage error"}})
		return
	}
	done := make(map[string]bool, len(stored))
	for _, d := range stored {
		done[d] = true
	}

	history := make([]gateway.HistoryEntry, 0, req.Count+1)
	for d := from; !d.After(start); d = d.AddDate(0, 0, 1) {
		day := d.Format(constants.DateFormat)
		e := gateway.HistoryEntry{Date: day}
		if done[day] {
			e.Done = 1
		}
		history = append(history, e)
	}
	writeJSON(w, http.StatusOK, historyBody{HistoryResponse: gateway.HistoryResponse{History: history}})
}

func (s *Server) streak(w http.ResponseWriter, r *http.Request) {
	habit := r.PathValue("habit")

	var req gateway.StreakRequest
	err := decodeBody(w, r, &req)
	if errors.Is(err, errEmptyBody) {
		req.StartDate, err = r.URL.Query().Get("startDate"), nil
	}
	if err == nil && strings.TrimSpace(req.StartDate) == "" {
		err = errors.New("startDate is required")
	}
	var start time.Time
	if err == nil {
		var day string
		if day, err = utils.NormalizeDate(req.StartDate); err == nil {
			start, err = utils.ParseDate(day)
		}
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, streakBody{gateway.StreakResponse{Streak: gateway.Int(0)}, errorBody{err.Error()}})
		return
	}

	n, err := s.countStreak(habit, start)
	if err != nil {
		logger.Error("failed to compute streak", "habit", habit, "err", err)
		writeJSON(w, http.StatusInternalServerError, streakBody{gateway.StreakResponse{Streak: gateway.Int(0)}, errorBody{"storage error"}})
		return
	}
	writeJSON(w, http.StatusOK, streakBody{StreakResponse: gateway.StreakResponse{Streak: gateway.Int(n)}})
}

// countStreak counts consecutive stored days ending at start, reading the
// store one window at a time.
func (s *Server) countStreak(habit string, start time.Time) (int, error) {
	n := 0
	to := start
	for {
		from := to.AddDate(0, 0, -(constants.StreakWindowDays - 1))
		stored, err := s.store.GetDays(habit, from.Format(constants.DateFormat), to.Format(constants.DateFormat))
		if err != nil {
			return 0, err
		}
		done := make(map[string]bool, len(stored))
		for _, d := range stored {
			done[d] = true
		}
		for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
			if !done[d.Format(constants.DateFormat)] {
				return n, nil
			}
			n++
		}
		to = from.AddDate(0, 0, -1)
	}
}
