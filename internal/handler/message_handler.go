package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messages     service.MessageService
	guard        *middleware.Authenticator
	messageLimit gin.HandlerFunc
}

func NewMessageHandler(messages service.MessageService, guard *middleware.Authenticator, messageLimit gin.HandlerFunc) *MessageHandler {
	return &MessageHandler{messages: messages, guard: guard, messageLimit: orNext(messageLimit)}
}

func (h *MessageHandler) RegisterRoutes(api *gin.RouterGroup) {
	messages := api.Group("/messages", h.guard.RequireAuth())
	{
		messages.GET("", h.ListConversations)
		messages.POST("", h.messageLimit, h.CreateConversation)
		messages.GET("/unread", h.UnreadCount)
		messages.GET("/:id", h.GetConversation)
		messages.POST("/:id", h.messageLimit, h.PostMessage)
		messages.PATCH("/:id", h.SetStatus)
	}

	admin := api.Group("/admin/messages", h.guard.RequireStaff())
	{
		admin.GET("", h.ListConversations)
		admin.PATCH("/:id/:msgId", h.EditMessage)
		admin.DELETE("/:id/:msgId", h.DeleteMessage)
	}
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Customers get their own threads; staff get every thread
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "open or closed"
// @Param        unread  query     bool    false  "Only threads unread by staff"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /messages [get]
func (h *MessageHandler) ListConversations(c *gin.Context) {
	p := pagination.Parse(c, 50)
	conversations, total, err := h.messages.ListConversations(c.Request.Context(), caller(c), service.ConversationQuery{
		Status: c.Query("status"),
		Unread: c.Query("unread") == "true",
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, conversations, total, p.Page, p.Limit))
}

// CreateConversation godoc
// @Summary      Start a conversation
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateConversationRequest  true  "Subject and first message"
// @Success      201      {object}  response.Response{data=model.Conversation}
// @Failure      400      {object}  response.Response
// @Router       /messages [post]
func (h *MessageHandler) CreateConversation(c *gin.Context) {
	var req service.CreateConversationRequest
	if !bindJSON(c, &req) {
		return
	}
	conversation, err := h.messages.CreateConversation(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, conversation))
}

// GetConversation godoc
// @Summary      Read a conversation
// @Description  Returns the thread and clears the caller's unread marker
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  response.Response{data=model.Conversation}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /messages/{id} [get]
func (h *MessageHandler) GetConversation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conversation, err := h.messages.GetConversation(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, conversation))
}

// PostMessage godoc
// @Summary      Reply
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Conversation ID"
// @Param        payload  body      service.PostMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=model.Message}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /messages/{id} [post]
func (h *MessageHandler) PostMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	message, err := h.messages.PostMessage(c.Request.Context(), caller(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, message))
}

// SetStatus godoc
// @Summary      Open or close a conversation
// @Description  Owners may only close; staff may also reopen
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Conversation ID"
// @Param        payload  body      service.SetConversationStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.Conversation}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /messages/{id} [patch]
func (h *MessageHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.SetConversationStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	conversation, err := h.messages.SetStatus(c.Request.Context(), caller(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, conversation))
}

// UnreadCount godoc
// @Summary      Unread conversations
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UnreadResponse}
// @Router       /messages/unread [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.UnreadResponse{Count: count}))
}

// EditMessage godoc
// @Summary      Edit a staff message
// @Tags         admin-messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Conversation ID"
// @Param        msgId    path      string                      true  "Message ID"
// @Param        payload  body      service.PostMessageRequest  true  "New content"
// @Success      200      {object}  response.Response{data=model.Message}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/messages/{id}/{msgId} [patch]
func (h *MessageHandler) EditMessage(c *gin.Context) {
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "msgId")
	if !ok {
		return
	}
	var req service.PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	message, err := h.messages.EditMessage(c.Request.Context(), caller(c), conversationID, messageID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, message))
}

// DeleteMessage godoc
// @Summary      Delete a staff message
// @Tags         admin-messages
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Conversation ID"
// @Param        msgId  path      string  true  "Message ID"
// @Success      200    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /admin/messages/{id}/{msgId} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "msgId")
	if !ok {
		return
	}
	if err := h.messages.DeleteMessage(c.Request.Context(), caller(c), conversationID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Mesajul a fost șters"}))
}
