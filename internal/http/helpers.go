package http

import (
	"errors"
	"net/http"
	"strings"

	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
	"arbdash/internal/services"
)

var validationErrors = []error{
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidCategory,
	core.ErrInvalidPeriodicity,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidGID,
}

// ingestStatus maps ingestion failures to HTTP status codes.
var ingestStatus = map[ingest.Kind]int{
	ingest.KindInvalidURL:     http.StatusBadRequest,
	ingest.KindFetch:          http.StatusBadGateway,
	ingest.KindEmptySheet:     http.StatusUnprocessableEntity,
	ingest.KindNoValidRows:    http.StatusUnprocessableEntity,
	ingest.KindHeaderMismatch: http.StatusUnprocessableEntity,
	ingest.KindSuperseded:     http.StatusConflict,
}

// errorResponse translates a service error into a response. Only
// unexpected errors are logged here.
func errorResponse(r *http.Request, err error) *JSONResponseBuilder {
	if kind := ingest.KindOf(err); kind != "" {
		return KindErrorResponse(ingestStatus[kind], string(kind), ingest.UserMessage(err))
	}
	switch {
	case errors.Is(err, services.ErrSheetNotConfigured):
		return KindErrorResponse(http.StatusNotFound, "not_configured", "Nenhuma planilha conectada.")
	case errors.Is(err, core.ErrExpenseNotFound), errors.Is(err, core.ErrMonthConfigNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrInvalidPeriod):
		return BadRequestError(err.Error())
	case errors.Is(err, errBodyTooLarge):
		return ErrorResponse(http.StatusRequestEntityTooLarge, err.Error())
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return UnprocessableEntityError(err.Error())
		}
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").WithError(err).ToSlice()...)
	return InternalServerError("Erro interno.")
}

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
