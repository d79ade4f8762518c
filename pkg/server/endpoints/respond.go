package endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithMessage writes the standard error envelope.
func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"message": message})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithMessage(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}

// intQuery reads an integer query parameter, defaulting when absent or
// malformed.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

// boolQuery reads a boolean query parameter, defaulting when absent.
func boolQuery(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	switch raw {
	case "":
		return def
	case "1", "true", "True", "yes", "on":
		return true
	case "0", "false", "False", "no", "off":
		return false
	}
	return def
}
