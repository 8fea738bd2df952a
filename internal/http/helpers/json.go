package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
)

// MaxBodyBytes limita el body de los requests JSON.
const MaxBodyBytes = 1 << 20

// ReadJSON decodifica el body en v. Tolera campos desconocidos; body vacío
// deja v en su zero value. Devuelve un *AppError listo para WriteError.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "application/json") {
		return httperrors.ErrInvalidJSON.WithMessage("Content-Type must be application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// WriteJSON escribe v tal cual con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK escribe el envelope de éxito.
func OK(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, httperrors.Envelope{Success: true, Message: message, Data: data})
}
