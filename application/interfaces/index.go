package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApplicationContext carries a parsed request body and the ambient request
// metadata from the transport layer into controllers.
type ApplicationContext[T any] struct {
	Ctx       *gin.Context
	Body      *T
	Keys      map[string]any
	Header    http.Header
	DeviceID  string
	UserAgent string
}

func (ac *ApplicationContext[T]) GetHeader(key string) string {
	if ac.Header == nil {
		return ""
	}
	return ac.Header.Get(key)
}
