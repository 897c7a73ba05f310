package middleware

import (
	"skilltracker/apperrors"
	"skilltracker/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidateObjectID answers 404 for a path parameter that cannot be a
// document id, before any store is asked.
func ValidateObjectID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !primitive.IsValidObjectID(c.Param(param)) {
			utils.NotFound(c, apperrors.NotFound.Error())
			return
		}
		c.Next()
	}
}
