package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/services"
)

// pageQuery reads page and page_size; the service clamps them.
func pageQuery(c *gin.Context) (services.PageRequest, error) {
	var page services.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, err
	}
	return page, nil
}
