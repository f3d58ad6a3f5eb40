package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MessageResponse — общий ответ с сообщением для пользователя и, если исходная
// система делала редирект, подсказкой, куда перейти.
type MessageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// writeJSON сериализует ответ; ошибка кодирования превращается в 500.
func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
