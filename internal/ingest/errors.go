package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies a failed ingestion.
type Kind string

const (
	KindInvalidURL     Kind = "invalid_url"
	KindFetch          Kind = "fetch"
	KindEmptySheet     Kind = "empty_sheet"
	KindNoValidRows    Kind = "no_valid_rows"
	KindHeaderMismatch Kind = "header_mismatch"
	KindSuperseded     Kind = "superseded"
)

var (
	ErrInvalidURL     = errors.New("url does not contain a spreadsheet id")
	ErrFetch          = errors.New("spreadsheet could not be retrieved")
	ErrEmptySheet     = errors.New("spreadsheet has no data rows")
	ErrNoValidRows    = errors.New("spreadsheet has no valid rows")
	ErrHeaderMismatch = errors.New("spreadsheet header is missing required columns")
	ErrSuperseded     = errors.New("ingestion superseded by a newer request")

	// Row level; never returned by Ingest.
	ErrBlankRow     = errors.New("row has no bet date")
	ErrMissingEvent = errors.New("row has no event name")
)

var sentinels = map[Kind]error{
	KindInvalidURL:     ErrInvalidURL,
	KindFetch:          ErrFetch,
	KindEmptySheet:     ErrEmptySheet,
	KindNoValidRows:    ErrNoValidRows,
	KindHeaderMismatch: ErrHeaderMismatch,
	KindSuperseded:     ErrSuperseded,
}

var userMessages = map[Kind]string{
	KindInvalidURL:     "ID da planilha inválido. Verifique se a URL está correta.",
	KindFetch:          `Erro ao acessar a planilha. Verifique se ela está compartilhada como "Qualquer pessoa com o link pode visualizar".`,
	KindEmptySheet:     "A planilha está vazia ou não contém dados.",
	KindNoValidRows:    "Nenhum dado válido encontrado na planilha. Verifique se os dados estão no formato correto.",
	KindHeaderMismatch: "O cabeçalho da planilha não contém todas as colunas obrigatórias.",
	KindSuperseded:     "A sincronização foi substituída por uma mais recente.",
}

// Error is a failed ingestion. errors.Is matches both the kind sentinel and
// the wrapped cause.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	base, ok := sentinels[e.Kind]
	if !ok {
		base = fmt.Errorf("ingestion failed (%s)", e.Kind)
	}
	if e.Err == nil {
		return base.Error()
	}
	return fmt.Sprintf("%v: %v", base, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind of an ingestion error, or "" for anything else.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return ""
}

// UserMessage returns the message shown to the dashboard user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := userMessages[KindOf(err)]; ok {
		return msg
	}
	return "Erro ao carregar dados da planilha."
}
