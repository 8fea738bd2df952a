// Package errors define la taxonomía de errores HTTP y el envelope JSON.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/google/uuid"
)

// Envelope es el cuerpo de toda respuesta de la API.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	ErrorID string `json:"errorId,omitempty"`
}

// WriteError escribe el envelope de error. Los 5xx llevan un errorId que
// también se loguea junto con la causa; el cliente sólo ve el mensaje.
// Devuelve el errorId (vacío para 4xx).
func WriteError(w http.ResponseWriter, r *http.Request, err error) string {
	appErr := FromError(err)

	env := Envelope{Success: false, Message: appErr.Message, Data: appErr.Data}
	log := logger.From(r.Context())
	if appErr.IsServer() {
		env.ErrorID = uuid.NewString()
		log.Error("request failed",
			logger.ErrorID(env.ErrorID),
			logger.ErrorCode(appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	} else {
		log.Debug("request rejected",
			logger.ErrorCode(appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(env)
	return env.ErrorID
}
