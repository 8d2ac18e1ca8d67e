package routes

import (
	"github.com/gin-gonic/gin"

	"media-server/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates media route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches the media routes. Paths carry no version prefix; they
// are the service's public contract.
func (r *Routes) Register(router gin.IRouter) {
	router.POST("/media", r.handlers.Media.Create)
	router.GET("/media", r.handlers.Media.List)
	router.GET("/media/:id", r.handlers.Media.Get)
	router.GET("/media/:id/file", r.handlers.Media.File)
	router.GET("/media/:id/thumbnail", r.handlers.Media.Thumbnail)
}
