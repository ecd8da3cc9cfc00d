package usersserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	userapp "github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	apierrors "github.com/Apurer/go-gin-users-crud/internal/shared/errors"
)

var problemResponder = apierrors.NewChainedResponder("", apierrors.ContextErrorMapper)

// respondUserError answers client errors with 400 and a message header, and
// everything else with an RFC 7807 problem.
func respondUserError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, userapp.ErrClient) {
		apierrors.RespondClientError(c, err.Error())
		return
	}
	_ = c.Error(err)
	problemResponder.RespondError(c, err)
}

// respondBadRequest rejects malformed input before it reaches the service.
func respondBadRequest(c *gin.Context, err error) {
	apierrors.RespondClientError(c, err.Error())
}
