package i

import "github.com/gin-gonic/gin"

// Controller registers the routes it serves.
type Controller interface {
	// RegisterAPI registers JSON routes under the versioned API prefix.
	RegisterAPI(*gin.RouterGroup)

	// RegisterRoot registers routes served from the site root.
	RegisterRoot(*gin.RouterGroup)
}
