package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
	"github.com/DoyleJ11/domainguessr-backend/internal/leaderboard"
)

type createLobbyRequest struct {
	LobbyCode string `json:"lobbyCode"`
	PeerID    string `json:"peerId"`
	Address   string `json:"address,omitempty"`
}

type createLobbyResponse struct {
	LobbyCode string `json:"lobbyCode"`
}

type submitScoreRequest struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateLobby registers a host under a lobby code. An empty lobbyCode lets
// the server pick one.
func CreateLobby(store directory.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		entry := directory.Entry{PeerID: req.PeerID, Address: req.Address}
		if err := entry.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		code := directory.NormalizeCode(req.LobbyCode)
		var err error
		if code == "" {
			code, err = directory.Register(r.Context(), store, entry)
		} else if err = directory.ValidateCode(code); err == nil {
			err = store.Create(r.Context(), code, entry)
		}

		switch {
		case errors.Is(err, directory.ErrInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, directory.ErrCodeTaken):
			writeError(w, http.StatusConflict, "lobby code already taken")
			return
		case err != nil:
			log.Error("create_lobby_failed", zap.String("code", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create lobby")
			return
		}

		log.Info("lobby_created", zap.String("code", code), zap.String("peer_id", entry.PeerID))
		writeJSON(w, http.StatusCreated, createLobbyResponse{LobbyCode: code})
	}
}

func JoinLobby(store directory.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := directory.NormalizeCode(chi.URLParam(r, "code"))

		entry, err := store.Lookup(r.Context(), code)
		switch {
		case errors.Is(err, directory.ErrNotFound):
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		case err != nil:
			log.Error("join_lobby_failed", zap.String("code", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to look up lobby")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func SubmitScore(store leaderboard.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitScoreRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		entry, err := store.Submit(r.Context(), req.Name, req.Score)
		switch {
		case errors.Is(err, leaderboard.ErrInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			log.Error("submit_score_failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store score")
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func Leaderboard(store leaderboard.Store, defaultLimit int, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		entries, err := store.Top(r.Context(), limit)
		if err != nil {
			log.Error("leaderboard_failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
			return
		}
		if entries == nil {
			entries = []leaderboard.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

const maxBody = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
