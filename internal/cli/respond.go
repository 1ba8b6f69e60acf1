package cli

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
)

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Message: err.Error()}
	var classified *errclass.Error
	if errors.As(err, &classified) {
		body.Code = classified.Code
	}
	writeJSON(w, status, body)
}
