package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estateline/internal/domain/notification"
	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

// EventHandler is the internal hook for marketplace producers (listing
// service, inspections, matching). Events land in the outbox; the worker
// performs the fan-out, so producers return as soon as the row commits.
type EventHandler struct {
	notifications *services.NotificationService
}

func NewEventHandler(notifications *services.NotificationService) *EventHandler {
	return &EventHandler{notifications: notifications}
}

func (h *EventHandler) Submit(c *gin.Context) {
	eventType := notification.EventType(c.Param("type"))
	if !notification.KnownEventType(eventType) || eventType == notification.EventNewMessage {
		badRequest(c, "unknown event type")
		return
	}

	var req httpdto.DomainEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	propertyID, err := parseOptionalUUID(req.PropertyID)
	if err != nil {
		badRequest(c, "invalid property_id")
		return
	}
	buyerID, err := parseOptionalUUID(req.BuyerID)
	if err != nil {
		badRequest(c, "invalid buyer_id")
		return
	}
	agentID, err := parseOptionalUUID(req.AgentID)
	if err != nil {
		badRequest(c, "invalid agent_id")
		return
	}

	ctx := c.Request.Context()
	switch eventType {
	case notification.EventPropertyUnlocked:
		if !propertyID.Valid {
			badRequest(c, "property_id is required")
			return
		}
		err = h.notifications.OnPropertyUnlocked(ctx, services.PropertyUnlockedEvent{
			EventID:    req.EventID,
			PropertyID: propertyID.UUID,
		})
	case notification.EventInspectionBooked, notification.EventInspectionScheduled:
		if !propertyID.Valid {
			badRequest(c, "property_id is required")
			return
		}
		err = h.notifications.OnInspectionBooked(ctx, services.InspectionEvent{
			EventID:    req.EventID,
			PropertyID: propertyID.UUID,
			Scheduled:  eventType == notification.EventInspectionScheduled,
		})
	case notification.EventNewAssignment:
		if !agentID.Valid {
			badRequest(c, "agent_id is required")
			return
		}
		err = h.notifications.OnNewAssignment(ctx, services.NewAssignmentEvent{
			EventID:    req.EventID,
			PropertyID: propertyID,
			AgentID:    agentID.UUID,
		})
	default:
		// The remaining events address a buyer.
		if !buyerID.Valid {
			badRequest(c, "buyer_id is required")
			return
		}
		ev := services.BuyerEvent{EventID: req.EventID, PropertyID: propertyID, BuyerID: buyerID.UUID}
		switch eventType {
		case notification.EventNewMatch:
			err = h.notifications.OnNewMatch(ctx, ev)
		case notification.EventStatusUpdate:
			err = h.notifications.OnStatusUpdate(ctx, ev)
		case notification.EventNewProperty:
			err = h.notifications.OnNewProperty(ctx, ev)
		case notification.EventPriceDrop:
			err = h.notifications.OnPriceDrop(ctx, ev)
		}
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse[any](nil))
}
