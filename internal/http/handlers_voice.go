package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/voice"
)

type voiceSettingsResponse struct {
	Supported      bool   `json:"supported"`
	Locale         string `json:"locale"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interimResults"`
}

func (s *Server) handleVoiceSettings(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(voiceSettingsResponse{
		Supported:      s.voiceAvailable(),
		Locale:         s.voiceSettings.Locale,
		Continuous:     s.voiceSettings.Continuous,
		InterimResults: s.voiceSettings.InterimResults,
	}).Write(w)
}

type voiceRequest struct {
	Transcript string      `json:"transcript"`
	Draft      *form.Draft `json:"draft"`
}

type voiceResponse struct {
	Draft  form.Draft `json:"draft"`
	Parsed bool       `json:"parsed"`
}

// handleVoice merges a browser transcript into the caller's draft. A transcript
// that cannot be used leaves the draft as it was.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req voiceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	draft := form.NewDraft()
	if req.Draft != nil {
		draft = *req.Draft
	}

	session := voice.NewSession(voice.TranscriptRecognizer(req.Transcript),
		voice.WithSettings(s.voiceSettings),
		voice.WithAvailability(s.voiceAvailable),
		voice.WithLogger(s.logger.WithComponent(log.ComponentVoice)),
	)

	candidate, ok, err := session.Capture(ctx)
	switch {
	case errors.Is(err, voice.ErrUnsupported):
		ServiceUnavailableError("Voice input is not available").Write(w)
		return
	case errors.Is(err, voice.ErrNoResult):
		NewResponse().JSON(voiceResponse{Draft: draft}).Write(w)
		return
	case err != nil:
		log.FromContext(ctx).WarnContext(ctx, "Voice capture failed",
			log.FieldOperation, log.OpCapture,
			log.FieldError, err.Error())
		InternalServerError("Voice input failed").Write(w)
		return
	case !ok:
		NewResponse().JSON(voiceResponse{Draft: draft}).Write(w)
		return
	}

	draft.ApplyVoice(candidate)
	NewResponse().JSON(voiceResponse{Draft: draft, Parsed: true}).Write(w)
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.banner.Status()).Write(w)
}

func (s *Server) handleDismissBanner(w http.ResponseWriter, r *http.Request) {
	s.banner.Dismiss()
	status := s.banner.Status()
	NewResponse().
		TriggerConnectivityChanged(status).
		JSON(status).
		Write(w)
}
