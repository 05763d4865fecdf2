package handlers

import (
	"net/http"

	"github.com/BadissRH/easypm/services"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (nh *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	notifications, err := nh.service.List(r.Context(), auth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (nh *NotificationHandler) MarkNotificationAsRead(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var in services.NotificationRefInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := nh.service.MarkRead(r.Context(), auth, in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "notification marked as read"})
}

func (nh *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var in services.NotificationRefInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := nh.service.Delete(r.Context(), auth, in); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
