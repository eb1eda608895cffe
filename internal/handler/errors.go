package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"go.uber.org/zap"
)

// invalidBodyMessage answers malformed JSON
const invalidBodyMessage = "Invalid request body"

// bindOptionalJSON binds the body into obj; an empty body leaves obj zero
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// serverError logs err and answers with an opaque 500
func serverError(ctx context.Context, c *gin.Context, op string, err error) {
	logger.Get().WithContext(ctx).Error("Request failed",
		zap.String("op", op),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	response.InternalError(c)
}
