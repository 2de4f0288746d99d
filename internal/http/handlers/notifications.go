package handlers

import (
	"net/http"
	"strconv"

	"oldphonedeals/internal/services/notify"
)

// ListNotifications returns the most recent order notifications.
func ListNotifications(inbox *notify.Inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, inbox.Recent(limit))
	}
}
