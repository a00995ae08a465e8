package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/middleware"
	"github.com/scentboard/scentboard/internal/services"
)

type UserHandler struct {
	userService  *services.UserService
	graphService *services.GraphService
	jwtSecret    string
	tokenTTL     time.Duration
}

func NewUserHandler(userService *services.UserService, graphService *services.GraphService, jwtSecret string, tokenTTL time.Duration) *UserHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserHandler{
		userService:  userService,
		graphService: graphService,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSession(c, "Login successful", session)
}

func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSession(c, "Token refreshed", session)
}

func (h *UserHandler) respondSession(c *gin.Context, message string, session *services.Session) {
	token, err := middleware.GenerateToken(session.User.ID.String(), session.User.Username, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            message,
		"token":              token,
		"expires_in":         int64(h.tokenTTL.Seconds()),
		"refresh_token":      session.RefreshToken,
		"refresh_expires_at": session.RefreshExpiresAt,
		"user":               session.User,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.userService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *UserHandler) Follow(c *gin.Context) {
	followerID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.graphService.Follow(c.Request.Context(), followerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Followed successfully"})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	followerID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.graphService.Unfollow(c.Request.Context(), followerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully"})
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	followers, err := h.graphService.ListFollowers(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, followers)
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	following, err := h.graphService.ListFollowing(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, following)
}
