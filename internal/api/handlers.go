package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"investchat/internal/models"
	"investchat/internal/service/chat"
	"investchat/internal/service/contract"
	"investchat/internal/session"
)

//go:embed templates/index.html
var templateFS embed.FS

// Options tunes the HTTP layer.
type Options struct {
	CompletionTimeout time.Duration
	SecureCookies     bool
}

// Handler wires HTTP routes to the chat service and the session store.
type Handler struct {
	chat      *chat.Service
	sessions  *session.Store
	contracts *contract.Generator
	page      *template.Template
	opts      Options
	log       *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(chatService *chat.Service, sessions *session.Store, contracts *contract.Generator, opts Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = 2 * time.Minute
	}
	return &Handler{
		chat:      chatService,
		sessions:  sessions,
		contracts: contracts,
		page:      template.Must(template.ParseFS(templateFS, "templates/index.html")),
		opts:      opts,
		log:       log.Named("api"),
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(h.page)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
	})

	web := router.Group("/")
	web.Use(h.sessions.Middleware(h.opts.SecureCookies), session.CSRF(h.opts.SecureCookies))
	web.GET("/", h.showPage)
	web.POST("/chat", h.postChat)
	web.POST("/contract", h.postContract)
	web.POST("/reset", h.resetSession)

	api := router.Group("/api")
	api.POST("/sessions", h.createSession)
	api.GET("/sessions/:session_id/history", h.getHistory)
	sessionRoutes := api.Group("/sessions/:session_id")
	sessionRoutes.Use(h.sessions.RequirePathSession())
	sessionRoutes.GET("", h.getSession)
	sessionRoutes.POST("/messages", h.postMessage)
	sessionRoutes.POST("/contract", h.postContractJSON)
	sessionRoutes.DELETE("", h.deleteSession)
}

// HTML form interface
type pageData struct {
	Messages      []models.Message
	FormPending   bool
	ContractTypes []contract.Type
	Form          contract.Request
	CSRF          string
	Error         string
}

func (h *Handler) render(c *gin.Context, status int, sess *chat.Session, form contract.Request, errMsg string) {
	snap := sess.Snapshot()
	c.HTML(status, "index.html", pageData{
		Messages:      snap.Messages,
		FormPending:   snap.FormPending,
		ContractTypes: contract.Types,
		Form:          form,
		CSRF:          session.CSRFToken(c),
		Error:         errMsg,
	})
}

func (h *Handler) currentSession(c *gin.Context) (*chat.Session, bool) {
	sess, ok := session.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return nil, false
	}
	return sess, true
}

func (h *Handler) showPage(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, sess, contract.Request{}, "")
}

func (h *Handler) postChat(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	if _, err := h.respond(c, sess, c.PostForm("message")); err != nil {
		if errors.Is(err, chat.ErrEmptyInput) {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		h.render(c, http.StatusBadGateway, sess, contract.Request{}, "L'assistant est indisponible : "+err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) postContract(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req contract.Request
	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusBadRequest, sess, req, "Formulaire invalide.")
		return
	}
	format, err := contract.ParseFormat(c.PostForm("format"))
	if err != nil {
		h.render(c, http.StatusBadRequest, sess, req, err.Error())
		return
	}
	doc, err := h.contracts.Document(req, format)
	if err != nil {
		var verr *contract.ValidationError
		if errors.As(err, &verr) {
			h.render(c, http.StatusBadRequest, sess, req, "Champs invalides : "+strings.Join(verr.Fields, ", "))
			return
		}
		h.render(c, http.StatusInternalServerError, sess, req, err.Error())
		return
	}
	h.sendDocument(c, sess, req, doc)
}

func (h *Handler) resetSession(c *gin.Context) {
	if sess, ok := session.FromContext(c); ok {
		h.sessions.Delete(sess.ID)
	}
	session.ClearCookie(c, h.opts.SecureCookies)
	c.Redirect(http.StatusSeeOther, "/")
}

// JSON interface
type messageRequest struct {
	Content string `json:"content"`
}

type contractRequest struct {
	Type     string `json:"type"`
	Investor string `json:"investor"`
	Holder   string `json:"holder"`
	Project  string `json:"project"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Format   string `json:"format"`
}

func (h *Handler) createSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func (h *Handler) getSession(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) deleteSession(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	h.sessions.Delete(sess.ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) getHistory(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = make([]models.Message, 0)
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) postMessage(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	reply, err := h.respond(c, sess, req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) postContractJSON(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var body contractRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	format, err := contract.ParseFormat(body.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req := contract.Request{
		Type:     contract.Type(body.Type),
		Investor: body.Investor,
		Holder:   body.Holder,
		Project:  body.Project,
		Amount:   body.Amount,
		Date:     body.Date,
	}
	doc, err := h.contracts.Document(req, format)
	if err != nil {
		var verr *contract.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": verr.Fields})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.sendDocument(c, sess, req, doc)
}

func (h *Handler) respond(c *gin.Context, sess *chat.Session, input string) (*chat.Reply, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.CompletionTimeout)
	defer cancel()
	return h.chat.Respond(ctx, sess, input)
}

func (h *Handler) sendDocument(c *gin.Context, sess *chat.Session, req contract.Request, doc *contract.Document) {
	sess.CompleteForm()
	h.log.Info("contract generated",
		zap.String("session_id", sess.ID),
		zap.String("type", string(req.Type)),
		zap.String("file", doc.FileName))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
