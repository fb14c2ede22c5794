package http

import (
	"net/http"
	"strings"

	"arbdash/internal/core"
	"arbdash/internal/services"
)

// handleOperations lists the synced operations, narrowed by q, sport,
// house and result.
func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.OperationFilter{
		Query:  sanitizeInput(q.Get("q")),
		Sport:  sanitizeInput(q.Get("sport")),
		House:  sanitizeInput(q.Get("house")),
		Result: core.Result(sanitizeInput(q.Get("result"))),
	}
	if f.Result != "" && !f.Result.IsValid() {
		BadRequestError("Resultado inválido: " + string(f.Result)).Write(w)
		return
	}
	list, err := s.settings.Operations(r.Context(), f)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(list).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), s.now().In(s.location))
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	d, err := s.dashboard.Dashboard(r.Context(), period)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := services.ParseRange(strings.TrimSpace(r.URL.Query().Get("range")))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, err := s.dashboard.Report(r.Context(), rng)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(report).Write(w)
}
