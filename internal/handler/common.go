package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estateline/internal/domain/principal"
	"estateline/internal/middleware"
	"estateline/internal/transport/httpdto"
)

// requirePrincipal pulls the authenticated principal out of the gin
// context. Handlers hand it to services explicitly; nothing below the
// transport layer reads it from ambient state.
func requirePrincipal(c *gin.Context) (principal.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		c.Abort()
		return principal.Principal{}, false
	}
	return p, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(msg, "INVALID_REQUEST"))
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

// parseOptionalUUID treats the empty string as absent.
func parseOptionalUUID(value string) (uuid.NullUUID, error) {
	if value == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseInt64(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
