package orderserver

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

// ApiHandleFunctions groups the handlers mounted by NewRouterWithGinEngine.
type ApiHandleFunctions struct {
	OrderAPI OrderAPI
}

// NewRouterWithGinEngine adds the order routes to an existing engine.
// Middleware must be registered on the engine before calling it.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Health",
			http.MethodGet,
			"/",
			handleFunctions.OrderAPI.Health,
		},
		{
			"AddOrder",
			http.MethodPost,
			"/add-order",
			handleFunctions.OrderAPI.AddOrder,
		},
		{
			"GetOrders",
			http.MethodGet,
			"/get-orders",
			handleFunctions.OrderAPI.GetOrders,
		},
		{
			"MarkOrderDone",
			http.MethodPost,
			"/mark-order-done/:id",
			handleFunctions.OrderAPI.MarkOrderDone,
		},
		{
			"DeleteOrder",
			http.MethodDelete,
			"/delete-order/:id",
			handleFunctions.OrderAPI.DeleteOrder,
		},
	}
}
