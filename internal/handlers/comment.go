package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/middleware"
	"github.com/scentboard/scentboard/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type updateCommentRequest struct {
	Text string `json:"text"`
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	comment, err := h.commentService.GetComment(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// GetPostComments lists root comments; ?sort=created_at|likes&order=asc|desc.
func (h *CommentHandler) GetPostComments(c *gin.Context) {
	opts, page, ok := listParams(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListTopLevel(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), opts, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) GetReplies(c *gin.Context) {
	opts, page, ok := listParams(c)
	if !ok {
		return
	}

	replies, err := h.commentService.ListReplies(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), opts, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, replies)
}

func listParams(c *gin.Context) (services.CommentListOptions, services.PageRequest, bool) {
	var opts services.CommentListOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		badRequest(c, err)
		return opts, services.PageRequest{}, false
	}
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return opts, page, false
	}
	return opts, page, true
}
