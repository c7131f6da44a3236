package router

import "github.com/gin-gonic/gin"

// Module is a feature that mounts its routes on the APIPrefix group. The group
// already carries the registry middleware when Register runs.
type Module interface {
	Register(api *gin.RouterGroup)
}
