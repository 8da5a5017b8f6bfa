package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmbank/settlement/internal/adapter/http/dto"
	"github.com/pmbank/settlement/internal/usecase"
)

// NotificationHandler handles notification-related HTTP requests.
type NotificationHandler struct {
	notificationUC *usecase.NotificationUseCase
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationUC *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{notificationUC: notificationUC}
}

// ListByAccount lists notifications for an account.
func (h *NotificationHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	notifications, err := h.notificationUC.ListNotificationsByAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list notifications", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NotificationsFromDomain(notifications))
}
