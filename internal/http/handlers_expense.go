package http

import (
	"net/http"

	"arbdash/internal/core"
)

// handleListExpenses returns the expense summary of a month, or every
// expense when no period is given.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !HasMonthParams(q) {
		list, err := s.expenses.List(r.Context(), nil)
		if err != nil {
			errorResponse(r, err).Write(w)
			return
		}
		if list == nil {
			list = []core.Expense{}
		}
		NewJSONResponse().Data(map[string]any{
			"expenses":   list,
			"total":      core.TotalExpenses(list),
			"byCategory": core.ExpensesByCategory(list),
		}).Write(w)
		return
	}

	period, err := ParseMonthParams(q, s.now().In(s.location))
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	summary, err := s.expenses.Summary(r.Context(), period)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(summary).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	e, err := ParseExpense(p, s.now(), s.location)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	created, err := s.expenses.Create(r.Context(), e)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+created.ID).
		Data(created).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	e, err := ParseExpense(p, s.now(), s.location)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	e.ID = r.PathValue("id")
	updated, err := s.expenses.Update(r.Context(), e)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), r.PathValue("id")); err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NoContent().Write(w)
}
