package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/middleware"
	"github.com/scentboard/scentboard/internal/services"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var draft services.FragranceDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), userID, &draft)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postService.GetPost(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var patch services.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), c.Param("id"), userID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    post,
	})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// Discover lists all posts; ?sort=recent|popular|trending.
func (h *PostHandler) Discover(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	posts, err := h.postService.ListDiscover(c.Request.Context(), middleware.GetUserID(c), c.Query("sort"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetFeed(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	posts, err := h.postService.ListFeed(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetUserPosts(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	posts, err := h.postService.ListByAuthor(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetSaved(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	posts, err := h.postService.ListSaved(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
