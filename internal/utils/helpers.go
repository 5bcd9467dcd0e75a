package utils

import (
	"encoding/json"
	"net/http"

	"quizduel/internal/models"
)

// --- Helper Functions ---
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, code int, info string) {
	WriteJSON(w, code, models.Resp{OK: false, Info: info})
}
