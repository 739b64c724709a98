package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/interview-conductor/internal/engine"
	"github.com/jonathan/interview-conductor/internal/types"
)

// CreateSessionRequest is the request body for POST /v1/sessions.
type CreateSessionRequest struct {
	Position types.PositionRecord `json:"position"`
	Variant  string               `json:"variant,omitempty"`
}

// CreateSessionResponse is the response for POST /v1/sessions. The token
// must accompany every later call for this session.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Greeting  string `json:"greeting"`
}

// TurnRequest is the request body for POST /v1/sessions/{id}/turns. Speaker
// defaults to the candidate; other identities are transcribed but not scored.
type TurnRequest struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	variant := s.variant
	if req.Variant != "" {
		variant = engine.VariantKind(req.Variant)
	}

	e, err := engine.New("", req.Position, engine.Options{
		Client:           s.client,
		Variant:          variant,
		Recorder:         s.recorder,
		ReasoningTimeout: s.reasoningTimeout,
	})
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.jwtService.GenerateToken(e.ID())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	s.registerSession(e)
	s.jsonResponse(w, http.StatusCreated, CreateSessionResponse{
		SessionID: e.ID(),
		Token:     token,
		Greeting:  e.KickoffQuestion(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, err := s.authorizedSession(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, e.Summary())
}

func (s *Server) handleKickoff(w http.ResponseWriter, r *http.Request) {
	e, err := s.authorizedSession(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"greeting": e.KickoffQuestion()})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	e, err := s.authorizedSession(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		s.errorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	out, err := e.HandleCandidateTurn(r.Context(), req.Text, req.Speaker)
	if err != nil {
		finished := &ErrSessionFinished{SessionID: e.ID()}
		s.errorResponse(w, HTTPStatus(finished), finished.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	e, err := s.authorizedSession(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	final, err := e.Finalize(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, final)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	e, err := s.authorizedSession(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session_id": e.ID(),
		"turns":      e.Transcript(),
	})
}

// authorizedSession resolves the path session and checks the caller's token
// against it.
func (s *Server) authorizedSession(r *http.Request) (*engine.Engine, error) {
	id := r.PathValue("id")
	e, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(r, id); err != nil {
		return nil, err
	}
	return e, nil
}
