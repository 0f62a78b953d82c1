package web

import (
	_ "embed"

	"github.com/gin-gonic/gin"
)

// doc.html is the editor client shell. The server treats it as an opaque
// asset; all collaboration logic lives behind the Socket.IO events.
//
//go:embed doc.html
var docPage []byte

// DocHandler serves the editor page.
func DocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", docPage)
	}
}
