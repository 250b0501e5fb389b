package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emails service.EmailService
	guard  *middleware.Authenticator
}

func NewEmailHandler(emails service.EmailService, guard *middleware.Authenticator) *EmailHandler {
	return &EmailHandler{emails: emails, guard: guard}
}

func (h *EmailHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/newsletter/subscribe", h.Subscribe)
	api.POST("/newsletter/unsubscribe", h.Unsubscribe)

	admin := api.Group("/admin", h.guard.RequireAdmin())
	{
		admin.GET("/newsletter", h.ListSubscribers)
		admin.GET("/emails/templates", h.ListTemplates)
		admin.POST("/emails/templates", h.CreateTemplate)
		admin.PUT("/emails/templates/:id", h.UpdateTemplate)
		admin.DELETE("/emails/templates/:id", h.DeleteTemplate)
		admin.POST("/emails/send", h.Send)
	}
	api.GET("/admin/emails/send", h.guard.RequireSuperAdmin(), h.Logs)
}

// Subscribe godoc
// @Summary      Subscribe to the newsletter
// @Description  Idempotent; reactivates a previous subscription
// @Tags         newsletter
// @Accept       json
// @Produce      json
// @Param        payload  body      service.NewsletterRequest  true  "Email"
// @Success      200      {object}  response.Response{data=model.NewsletterSubscriber}
// @Failure      400      {object}  response.Response
// @Router       /newsletter/subscribe [post]
func (h *EmailHandler) Subscribe(c *gin.Context) {
	var req service.NewsletterRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.emails.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sub))
}

// Unsubscribe godoc
// @Summary      Unsubscribe from the newsletter
// @Tags         newsletter
// @Accept       json
// @Produce      json
// @Param        payload  body      service.NewsletterRequest  true  "Email"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /newsletter/unsubscribe [post]
func (h *EmailHandler) Unsubscribe(c *gin.Context) {
	var req service.NewsletterRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.emails.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Dezabonare reușită"}))
}

// ListSubscribers godoc
// @Summary      Newsletter subscribers
// @Tags         admin-emails
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /admin/newsletter [get]
func (h *EmailHandler) ListSubscribers(c *gin.Context) {
	p := pagination.Parse(c, 50)
	subs, total, err := h.emails.ListSubscribers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, subs, total, p.Page, p.Limit))
}

// ListTemplates godoc
// @Summary      Email templates
// @Tags         admin-emails
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.EmailTemplate}
// @Router       /admin/emails/templates [get]
func (h *EmailHandler) ListTemplates(c *gin.Context) {
	templates, err := h.emails.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

// CreateTemplate godoc
// @Summary      Create email template
// @Tags         admin-emails
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.EmailTemplateRequest  true  "Template"
// @Success      201      {object}  response.Response{data=model.EmailTemplate}
// @Failure      400      {object}  response.Response
// @Router       /admin/emails/templates [post]
func (h *EmailHandler) CreateTemplate(c *gin.Context) {
	var req service.EmailTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.emails.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, t))
}

// UpdateTemplate godoc
// @Summary      Update email template
// @Tags         admin-emails
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Template ID"
// @Param        payload  body      service.EmailTemplateRequest  true  "Template"
// @Success      200      {object}  response.Response{data=model.EmailTemplate}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/emails/templates/{id} [put]
func (h *EmailHandler) UpdateTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.EmailTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.emails.UpdateTemplate(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, t))
}

// DeleteTemplate godoc
// @Summary      Delete email template
// @Tags         admin-emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/emails/templates/{id} [delete]
func (h *EmailHandler) DeleteTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.emails.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Șablonul a fost șters"}))
}

// Send godoc
// @Summary      Send a broadcast
// @Description  Emails every recipient of the audience individually; one failure never aborts the batch
// @Tags         admin-emails
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SendEmailRequest  true  "Broadcast"
// @Success      200      {object}  response.Response{data=model.EmailLog}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /admin/emails/send [post]
func (h *EmailHandler) Send(c *gin.Context) {
	var req service.SendEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.emails.Send(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// Logs godoc
// @Summary      Broadcast history
// @Description  Super admin only
// @Tags         admin-emails
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=service.EmailLogsResponse}
// @Failure      403    {object}  response.Response
// @Router       /admin/emails/send [get]
func (h *EmailHandler) Logs(c *gin.Context) {
	p := pagination.Parse(c, 20)
	res, err := h.emails.Logs(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
