package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/services"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	commentService *services.CommentService
	logger         *logrus.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService *services.CommentService, logger *logrus.Logger) *CommentHandler {
	return &CommentHandler{commentService: commentService, logger: logger}
}

// CreateComment handles POST /api/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input services.CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), requester(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListTaskComments handles GET /api/comments/task/:taskId
func (h *CommentHandler) ListTaskComments(c *gin.Context) {
	comments, err := h.commentService.ListTaskComments(c.Request.Context(), requester(c), c.Param("taskId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// UpdateComment handles PUT /api/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var input services.UpdateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), requester(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.commentService.DeleteComment(c.Request.Context(), requester(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
