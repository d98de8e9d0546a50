package transport

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeTwiML(w http.ResponseWriter, doc string, err error) {
	if err != nil {
		log.Error().Err(err).Msg("encode twiml")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func logIndexError(err error, key string) {
	log.Warn().Err(err).Str("key", key).Msg("session index unavailable")
}
