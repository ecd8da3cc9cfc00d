package usersserver

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/oapi-codegen/runtime"

	userhttpmapper "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/http/mapper"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	userports "github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

// IdempotencyKeyHeader lets clients retry creates safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// unboundedLessThanAge is the lessThanAge value that disables the age filter.
const unboundedLessThanAge = -1

// UserAPI wires HTTP transport with the users service and workflows.
type UserAPI struct {
	service         userports.Service
	workflows       userports.WorkflowOrchestrator
	locationBaseURL string
}

// NewUserAPI creates a UserAPI. Created users are announced in the Location
// header as locationBaseURL + "/users/{id}".
func NewUserAPI(service userports.Service, workflows userports.WorkflowOrchestrator, locationBaseURL string) UserAPI {
	return UserAPI{
		service:         service,
		workflows:       workflows,
		locationBaseURL: strings.TrimRight(locationBaseURL, "/"),
	}
}

// Post /users
// Create a user
func (api *UserAPI) CreateUser(c *gin.Context) {
	payload, err := bindUser(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	var input *types.UserInput
	if payload != nil {
		input = userhttpmapper.ToUserInput(*payload, c.GetHeader(IdempotencyKeyHeader))
	}
	id, err := api.createUser(c.Request.Context(), input)
	if err != nil {
		respondUserError(c, err)
		return
	}
	if id == "" {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("Location", api.locationBaseURL+"/users/"+id)
	c.Status(http.StatusCreated)
}

func (api *UserAPI) createUser(ctx context.Context, input *types.UserInput) (string, error) {
	if api.workflows != nil {
		return api.workflows.CreateUser(ctx, input)
	}
	return api.service.CreateUser(ctx, input)
}

// Get /users/count
// Count users, optionally only those at most maxAge years old
func (api *UserAPI) CountUsers(c *gin.Context) {
	query := c.Request.URL.Query()
	var maxAge *int
	if err := runtime.BindQueryParameter("form", true, false, "maxAge", query, &maxAge); err != nil {
		respondBadRequest(c, err)
		return
	}
	if maxAge == nil {
		if err := runtime.BindQueryParameter("form", true, false, "lessThanAge", query, &maxAge); err != nil {
			respondBadRequest(c, err)
			return
		}
		// older clients send lessThanAge=-1 to mean "every user"
		if maxAge != nil && *maxAge == unboundedLessThanAge {
			maxAge = nil
		}
	}

	var (
		count int64
		err   error
	)
	if maxAge != nil {
		count, err = api.service.UserCountAtMostAge(c.Request.Context(), *maxAge)
	} else {
		count, err = api.service.UserCount(c.Request.Context())
	}
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.UserCount{NoOfUsers: count})
}

// Get /users
// List users, optionally only the owners of the pet named petName
func (api *UserAPI) ListUsers(c *gin.Context) {
	var (
		views []types.UserView
		err   error
	)
	if petName, ok := c.GetQuery("petName"); ok {
		views, err = api.service.ListUsersByPet(c.Request.Context(), petName)
	} else {
		views, err = api.service.ListUsers(c.Request.Context())
	}
	if err != nil {
		respondUserError(c, err)
		return
	}
	if len(views) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromUserViews(views))
}

// Get /users/:userId
// Get a user by id
func (api *UserAPI) GetUser(c *gin.Context) {
	view, err := api.service.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondUserError(c, err)
		return
	}
	if view == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromUserView(view))
}

// Put /users/:userId
// Partially update a user
func (api *UserAPI) UpdateUser(c *gin.Context) {
	payload, err := bindUser(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	var input *types.UserInput
	if payload != nil {
		input = userhttpmapper.ToUserInput(*payload, "")
	}
	updated, err := api.service.UpdateUser(c.Request.Context(), c.Param("userId"), input)
	if err != nil {
		respondUserError(c, err)
		return
	}
	if !updated {
		c.Status(http.StatusNotModified)
		return
	}
	c.Status(http.StatusOK)
}

// Delete /users/:userId
// Delete a user
func (api *UserAPI) DeleteUser(c *gin.Context) {
	deleted, err := api.service.DeleteUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondUserError(c, err)
		return
	}
	if !deleted {
		c.Status(http.StatusNotModified)
		return
	}
	c.Status(http.StatusOK)
}

// bindUser decodes the request body. An empty or null body yields a nil user.
func bindUser(c *gin.Context) (*userhttpmapper.User, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var payload userhttpmapper.User
	if err := binding.JSON.BindBody(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
