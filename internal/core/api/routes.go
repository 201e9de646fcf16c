package api

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches the service endpoints to a router group.
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	v1.GET("/rules", h.HandleListRules)
	v1.GET("/rules/:dept/:year/:category", h.HandleGetRule)
	v1.POST("/rules/:dept/:year/:category", h.HandleCreateRule)
	v1.PUT("/rules/:dept/:year/:category", h.HandleUpdateRule)
	v1.DELETE("/rules/:dept/:year/:category", h.HandleDeleteRule)

	v1.GET("/departments", h.HandleListDepartments)

	v1.GET("/students", h.HandleListStudents)
	v1.GET("/students/:id", h.HandleGetStudent)
	v1.PUT("/students/:id", h.HandlePutStudent)
	v1.DELETE("/students/:id", h.HandleDeleteStudent)
	v1.GET("/students/:id/results", h.HandleListResults)

	v1.POST("/review/:id", h.HandleReview)
	v1.GET("/results/:id", h.HandleGetResult)
}

// NewRouter builds the full engine with health endpoint and v1 group.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", h.HandleHealth)
	RegisterRoutes(router.Group("/v1"), h)
	return router
}
