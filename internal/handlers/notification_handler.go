package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/internal/services"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/Dias221467/yumix/pkg/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notFoundMessage = "Notification not found"

// NotificationService is the lifecycle the handler drives for one audience.
type NotificationService interface {
	Audience() models.Audience
	Create(ctx context.Context, in services.CreateNotificationInput) (*models.Notification, error)
	List(ctx context.Context, recipientID primitive.ObjectID, countOnly bool) (*services.ListResult, error)
	MarkAsRead(ctx context.Context, recipientID, id primitive.ObjectID) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, recipientID, id primitive.ObjectID) error
	Clear(ctx context.Context, recipientID primitive.ObjectID, all bool) (int64, error)
}

type NotificationHandler struct {
	services map[models.Audience]NotificationService
	validate *validator.Validate
	debug    bool
}

// NewNotificationHandler serves every given audience under /notifications/{audience}.
// With debug on, failed clears include the underlying error.
func NewNotificationHandler(debug bool, svcs ...NotificationService) *NotificationHandler {
	h := &NotificationHandler{
		services: make(map[models.Audience]NotificationService, len(svcs)),
		validate: validator.New(),
		debug:    debug,
	}
	for _, svc := range svcs {
		h.services[svc.Audience()] = svc
	}
	return h
}

// RegisterRoutes mounts the notification routes on an authenticated router.
func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{audience}", h.ListHandler).Methods(http.MethodGet)
	r.HandleFunc("/{audience}/mark-all-read", h.MarkAllAsReadHandler).Methods(http.MethodPut)
	r.HandleFunc("/{audience}/test", h.CreateTestHandler).Methods(http.MethodPost)
	r.HandleFunc("/{audience}/clear", h.ClearHandler).Methods(http.MethodDelete)
	r.HandleFunc("/{audience}/{id}/read", h.MarkAsReadHandler).Methods(http.MethodPut)
	r.HandleFunc("/{audience}/{id}", h.DeleteHandler).Methods(http.MethodDelete)
}

// resolve returns the caller's id and the service for the requested audience,
// writing the failure response itself when it returns ok=false.
func (h *NotificationHandler) resolve(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, NotificationService, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, nil, false
	}
	recipientID, err := primitive.ObjectIDFromHex(claims.UserID())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, nil, false
	}

	audience, ok := models.ParseAudience(mux.Vars(r)["audience"])
	if !ok {
		writeFailure(w, http.StatusNotFound, "Unknown notification audience")
		return primitive.NilObjectID, nil, false
	}
	svc, ok := h.services[audience]
	if !ok {
		writeFailure(w, http.StatusNotFound, "Unknown notification audience")
		return primitive.NilObjectID, nil, false
	}
	if audience == models.AudienceAdmin && claims.Role != "admin" {
		writeFailure(w, http.StatusForbidden, "Forbidden")
		return primitive.NilObjectID, nil, false
	}
	return recipientID, svc, true
}

// GET /notifications/{audience}?countOnly=true
func (h *NotificationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, svc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	countOnly, _ := strconv.ParseBool(r.URL.Query().Get("countOnly"))

	result, err := svc.List(r.Context(), recipientID, countOnly)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	writeData(w, http.StatusOK, result)
}

// PUT /notifications/{audience}/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, svc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, http.StatusNotFound, notFoundMessage)
		return
	}

	notif, err := svc.MarkAsRead(r.Context(), recipientID, id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to mark notification as read")
		return
	}
	writeData(w, http.StatusOK, notif)
}

// PUT /notifications/{audience}/mark-all-read
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, svc, ok := h.resolve(w, r)
	if !ok {
		return
	}

	modified, err := svc.MarkAllAsRead(r.Context(), recipientID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to mark notifications as read")
		return
	}
	writeMessage(w, fmt.Sprintf("Marked %d notifications as read", modified))
}

// DELETE /notifications/{audience}/{id}
func (h *NotificationHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, svc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, http.StatusNotFound, notFoundMessage)
		return
	}

	if err := svc.Delete(r.Context(), recipientID, id); err != nil {
		h.writeServiceError(w, err, "Failed to delete notification")
		return
	}
	writeMessage(w, "Notification deleted")
}

// DELETE /notifications/{audience}/clear?all=true
func (h *NotificationHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, svc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	deleted, err := svc.Clear(r.Context(), recipientID, all)
	if err != nil {
		body := response{Success: false, Message: "Failed to clear notifications"}
		if h.debug {
			body.Error = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	message := fmt.Sprintf("Cleared %d old notifications", deleted)
	if all {
		message = fmt.Sprintf("Cleared %d notifications", deleted)
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: message, Count: &deleted})
}

type testNotificationRequest struct {
	Title   string                 `json:"title" validate:"max=200"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Type    string                 `json:"type" validate:"required"`
	Data    map[string]interface{} `json:"data"`
}

// POST /notifications/{audience}/test
func (h *NotificationHandler) CreateTestHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, svc, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req testNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.Log.WithError(err).Debug("Test notification request failed validation")
		writeFailure(w, http.StatusBadRequest, "Message and type are required")
		return
	}

	notif, err := svc.Create(r.Context(), services.CreateNotificationInput{
		RecipientID: recipientID,
		Title:       req.Title,
		Message:     req.Message,
		Type:        models.NotificationType(req.Type),
		Data:        req.Data,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeFailure(w, http.StatusBadRequest, "Invalid notification")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "Failed to create notification")
		return
	}
	if notif == nil {
		writeMessage(w, "Notification suppressed by your preferences")
		return
	}
	writeData(w, http.StatusCreated, notif)
}

func (h *NotificationHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, services.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, notFoundMessage)
		return
	}
	writeFailure(w, http.StatusInternalServerError, message)
}
