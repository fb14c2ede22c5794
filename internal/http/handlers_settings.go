package http

import (
	"net/http"
	"time"

	"arbdash/internal/ingest"
	"arbdash/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(settings).Write(w)
}

func (s *Server) handleSetSheet(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	settings, err := s.settings.SetSheetURL(r.Context(), p.Get("url"))
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(settings).Write(w)
}

func (s *Server) handleDisconnectSheet(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.DisconnectSheet(r.Context()); err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleUpsertMonthConfig(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	mc, err := ParseMonthConfig(p)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	settings, err := s.settings.UpsertMonthConfig(r.Context(), mc)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(settings).Write(w)
}

func (s *Server) handleDeleteMonthConfig(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePathPeriod(r)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	if err := s.settings.RemoveMonthConfig(r.Context(), period); err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NoContent().Write(w)
}

// syncResponse summarizes a successful sync.
type syncResponse struct {
	Period   string    `json:"period"`
	SheetID  string    `json:"sheetId"`
	TabID    string    `json:"tabId"`
	Records  int       `json:"records"`
	Skipped  int       `json:"skipped"`
	Missing  []string  `json:"missingColumns,omitempty"`
	SyncedAt time.Time `json:"syncedAt"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := ParseMonthParams(r.URL.Query(), s.now().In(s.location))
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	batch, err := s.settings.Sync(ctx, &period)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Sync request failed",
			log.FieldOperation, log.OpSync, log.FieldPeriod, period.String(),
			log.FieldErrorKind, string(ingest.KindOf(err)), log.FieldError, err)
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(syncResponse{
		Period:   batch.Period.String(),
		SheetID:  batch.SheetID,
		TabID:    batch.TabID,
		Records:  len(batch.Records),
		Skipped:  batch.Skipped,
		Missing:  batch.Missing,
		SyncedAt: batch.SyncedAt,
	}).Write(w)
}
