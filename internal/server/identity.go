package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// Session handling lives in front of this service. The proxy forwards the
// authenticated principal and tenant in headers; requests without them are
// rejected before any handler runs.
const (
	headerLibraryID     = "X-Library-ID"
	headerPrincipalID   = "X-Principal-ID"
	headerPrincipalRole = "X-Principal-Role"

	ctxLibraryID     = "library_id"
	ctxPrincipalID   = "principal_id"
	ctxPrincipalRole = "principal_role"
)

func identityFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		libraryID, err := snowflake.ParseString(c.GetHeader(headerLibraryID))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		principalID, err := snowflake.ParseString(c.GetHeader(headerPrincipalID))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(ctxLibraryID, libraryID)
		c.Set(ctxPrincipalID, principalID)
		c.Set(ctxPrincipalRole, c.GetHeader(headerPrincipalRole))
		c.Next()
	}
}

func libraryIDFromContext(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(ctxLibraryID); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	return 0
}

func principalFromContext(c *gin.Context) (snowflake.ID, string) {
	var id snowflake.ID
	if v, ok := c.Get(ctxPrincipalID); ok {
		if parsed, ok := v.(snowflake.ID); ok {
			id = parsed
		}
	}
	role := c.GetString(ctxPrincipalRole)
	return id, role
}
