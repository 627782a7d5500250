package middleware

import (
	"encoding/json"
	"net/http"
)

type errorItem struct {
	Msg  string `json:"msg"`
	Code string `json:"code,omitempty"`
}

// writeJSONError writes the {errors:[{msg}]} body the handlers use.
func writeJSONError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string][]errorItem{"errors": {{Msg: msg, Code: code}}})
}
