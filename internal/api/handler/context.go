package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/admitflow/crm-backend/internal/core/domain"
)

// ctxPrincipal extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: a token without a
// subject or role is structurally valid but operationally unusable.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	id, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if id == "" || role == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	name, _ := c.Get("name").(string)
	email, _ := c.Get("email").(string)

	return domain.Principal{ID: id, Name: name, Email: email, Role: role}, nil
}
