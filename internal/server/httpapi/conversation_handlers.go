package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/gin-gonic/gin"
)

type nameRequest struct {
	Name string `json:"name"`
}

type textRequest struct {
	Text string `json:"text"`
}

// messageResponse is the stored user message with the bot's reply attached.
type messageResponse struct {
	*models.Message
	Reply *models.Message `json:"reply"`
}

func (s *HTTPServer) listConversations(c *gin.Context) {
	convs, err := s.convs.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.internalError(c, "listing conversations failed", err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (s *HTTPServer) createConversation(c *gin.Context) {
	var req nameRequest
	_ = c.ShouldBindJSON(&req)

	conv, err := s.convs.Create(c.Request.Context(), currentUser(c).ID, req.Name)
	if err != nil {
		s.conversationError(c, "creating conversation failed", err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *HTTPServer) renameConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var req nameRequest
	_ = c.ShouldBindJSON(&req)

	conv, err := s.convs.Rename(c.Request.Context(), currentUser(c).ID, id, req.Name)
	if err != nil {
		s.conversationError(c, "renaming conversation failed", err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *HTTPServer) deleteConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	if err := s.convs.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		s.conversationError(c, "deleting conversation failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) postMessage(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var req textRequest
	_ = c.ShouldBindJSON(&req)

	userMsg, botMsg, err := s.convs.PostMessage(c.Request.Context(), currentUser(c).ID, id, req.Text)
	if err != nil {
		s.conversationError(c, "posting message failed", err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: userMsg, Reply: botMsg})
}

func (s *HTTPServer) conversationError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyName):
		abortError(c, http.StatusBadRequest, "Conversation name is required")
	case errors.Is(err, services.ErrEmptyText):
		abortError(c, http.StatusBadRequest, "Message text is required")
	case errors.Is(err, common.ErrorNotFound):
		abortError(c, http.StatusNotFound, "Conversation not found")
	default:
		s.internalError(c, msg, err)
	}
}

func conversationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		abortError(c, http.StatusNotFound, "Conversation not found")
		return 0, false
	}
	return id, true
}
