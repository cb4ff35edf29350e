// Package response renders the JSON envelope every HTTP handler in this
// service answers with: {"code": <http status>, "data": {...}, "msg": ""}.
// Clients key off the code field; msg is only populated for errors and the
// few success paths that carry a human-readable note.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"msg"`
}

func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	write(c, http.StatusOK, data, msg)
}

// Error reports a failed request. Data stays an empty object so clients
// never have to null-check it.
func Error(c *gin.Context, status int, msg string) {
	write(c, status, gin.H{}, msg)
}

func write(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Body{
		Code: status,
		Data: data,
		Msg:  msg,
	})
}
