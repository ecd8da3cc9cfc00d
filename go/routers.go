package usersserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	// Routes for the UserAPI part of the API
	UserAPI UserAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"CreateUser",
			http.MethodPost,
			"/users",
			handleFunctions.UserAPI.CreateUser,
		},
		{
			"CountUsers",
			http.MethodGet,
			"/users/count",
			handleFunctions.UserAPI.CountUsers,
		},
		{
			"ListUsers",
			http.MethodGet,
			"/users",
			handleFunctions.UserAPI.ListUsers,
		},
		{
			"GetUser",
			http.MethodGet,
			"/users/:userId",
			handleFunctions.UserAPI.GetUser,
		},
		{
			"UpdateUser",
			http.MethodPut,
			"/users/:userId",
			handleFunctions.UserAPI.UpdateUser,
		},
		{
			"DeleteUser",
			http.MethodDelete,
			"/users/:userId",
			handleFunctions.UserAPI.DeleteUser,
		},
	}
}
