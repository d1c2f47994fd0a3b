package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jominki354/hotstinder/middleware"
	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/services"
)

const maxReplayUploadBytes = 32 << 20

type MatchHandler struct {
	matchService  services.MatchService
	replayService services.ReplayService
}

func NewMatchHandler(matchService services.MatchService, replayService services.ReplayService) *MatchHandler {
	return &MatchHandler{
		matchService:  matchService,
		replayService: replayService,
	}
}

func matchIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "matchID"))
	if err != nil || id < 1 {
		return 0, errors.New("invalid match id parameter")
	}
	return id, nil
}

// participantFromRequest собирает идентичность участника: зарегистрированный
// игрок берётся из JWT-контекста, гость — из тела запроса. Обе формы сразу —
// ошибка валидации, чтобы аутентифицированный пользователь не выдавал себя
// за гостя.
func participantFromRequest(r *http.Request, guestTag string) (models.Participant, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err == nil {
		if guestTag != "" {
			return models.Participant{}, errors.New("guest_battle_tag is not allowed for authenticated requests")
		}
		name, _ := middleware.GetUserNameFromContext(r.Context())
		return models.RegisteredParticipant(userID, name), nil
	}
	if guestTag == "" {
		return models.Participant{}, errors.New("guest_battle_tag is required for unauthenticated requests")
	}
	return models.GuestParticipant(guestTag), nil
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if userID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		input.CreatedBy = &userID
	}

	match, err := h.matchService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, players, err := h.matchService.Get(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	resp := jsonResponse{"match": match, "players": players}
	if match.ReplayKey != nil {
		resp["replay_url"] = h.replayService.PublicURL(match)
	}

	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MatchStatus(raw)
		switch s {
		case models.StatusOpen, models.StatusFull, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled:
			status = &s
		default:
			badRequestResponse(w, r, errors.New("unknown status filter"))
			return
		}
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	matches, err := h.matchService.List(r.Context(), status, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type joinMatchRequest struct {
	GuestBattleTag string       `json:"guest_battle_tag,omitempty"`
	PreferredTeam  *models.Team `json:"preferred_team,omitempty"`
}

func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req joinMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.PreferredTeam != nil && !req.PreferredTeam.Valid() {
		badRequestResponse(w, r, errors.New("preferred_team must be blue or red"))
		return
	}

	participant, err := participantFromRequest(r, req.GuestBattleTag)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.matchService.Join(r.Context(), matchID, participant, req.PreferredTeam)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type leaveMatchRequest struct {
	GuestBattleTag string `json:"guest_battle_tag,omitempty"`
}

func (h *MatchHandler) Leave(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req leaveMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := participantFromRequest(r, req.GuestBattleTag)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.Leave(r.Context(), matchID, participant); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "left match"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.Start(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "match started"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var outcome models.MatchOutcome
	if err := readJSON(w, r, &outcome); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.Complete(r.Context(), matchID, outcome)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type cancelMatchRequest struct {
	Reason string `json:"reason"`
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req cancelMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}

	if err := h.matchService.Cancel(r.Context(), matchID, req.Reason); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "match cancelled"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type recordEventRequest struct {
	GuestBattleTag string `json:"guest_battle_tag,omitempty"`
	EventType      string `json:"event_type"`
	Message        string `json:"message"`
}

func (h *MatchHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req recordEventRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.EventType == "" {
		badRequestResponse(w, r, errors.New("event_type is required"))
		return
	}

	var participant *models.Participant
	if p, err := participantFromRequest(r, req.GuestBattleTag); err == nil {
		participant = &p
	}

	if err := h.matchService.RecordEvent(r.Context(), matchID, participant, req.EventType, req.Message); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": "event recorded"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Events(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	limit := queryInt(r, "limit", 50)

	events, err := h.matchService.Events(r.Context(), matchID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UploadReplay(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxReplayUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form"))
		return
	}

	file, header, err := r.FormFile("replay")
	if err != nil {
		badRequestResponse(w, r, errors.New("replay file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.replayService.Upload(r.Context(), matchID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"replay_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
