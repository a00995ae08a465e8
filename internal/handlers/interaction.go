package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/services"
)

type InteractionHandler struct {
	interactionService *services.InteractionService
}

func NewInteractionHandler(interactionService *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactionService: interactionService}
}

func (h *InteractionHandler) LikePost(c *gin.Context) {
	h.like(c, models.SubjectPost)
}

func (h *InteractionHandler) UnlikePost(c *gin.Context) {
	h.unlike(c, models.SubjectPost)
}

func (h *InteractionHandler) LikeComment(c *gin.Context) {
	h.like(c, models.SubjectComment)
}

func (h *InteractionHandler) UnlikeComment(c *gin.Context) {
	h.unlike(c, models.SubjectComment)
}

func (h *InteractionHandler) like(c *gin.Context, kind models.SubjectKind) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.interactionService.Like(c.Request.Context(), string(kind), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Liked successfully", "liked": true})
}

func (h *InteractionHandler) unlike(c *gin.Context, kind models.SubjectKind) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.interactionService.Unlike(c.Request.Context(), string(kind), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unliked successfully", "liked": false})
}

func (h *InteractionHandler) SavePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.interactionService.Save(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saved successfully", "saved": true})
}

func (h *InteractionHandler) UnsavePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.interactionService.Unsave(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsaved successfully", "saved": false})
}

func (h *InteractionHandler) GetPostLikes(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	likers, err := h.interactionService.ListLikers(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, likers)
}
