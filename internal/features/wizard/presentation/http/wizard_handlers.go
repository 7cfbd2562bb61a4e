package http

import (
	"errors"
	"net/http"
	"strings"

	"crazy-bakery/backend/internal/features/wizard/application"
	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
	"crazy-bakery/backend/internal/ws"

	"github.com/gin-gonic/gin"
)

// SessionFactory builds the session of a browser from its bearer token,
// which may be empty.
type SessionFactory func(token string) domain.Session

// tokenHolder is implemented by sessions that can hand their token back to
// the browser after a sign-in.
type tokenHolder interface {
	Token() string
}

// WizardHandler exposes the wizard service over HTTP.
type WizardHandler struct {
	wizards  *application.WizardService
	sessions SessionFactory
	hub      *ws.Hub
	log      *logger.Logger
}

// NewWizardHandler creates a new WizardHandler. hub may be nil, which
// disables the websocket endpoint.
func NewWizardHandler(wizards *application.WizardService, sessions SessionFactory, hub *ws.Hub, log *logger.Logger) *WizardHandler {
	return &WizardHandler{
		wizards:  wizards,
		sessions: sessions,
		hub:      hub,
		log:      log,
	}
}

// RegisterRoutes mounts the wizard endpoints on rg.
func (h *WizardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.OpenHandler)
	w := rg.Group("/:id")
	{
		w.GET("", h.StateHandler)
		w.DELETE("", h.CancelHandler)
		w.POST("/select", h.SelectHandler)
		w.POST("/next", h.NextHandler)
		w.POST("/back", h.BackHandler)
		w.GET("/options/:step", h.OptionsHandler)
		w.POST("/options/:step", h.ReloadOptionsHandler)
		w.PUT("/customization", h.CustomizationHandler)
		w.POST("/enhance", h.EnhanceHandler)
		w.POST("/proposal", h.ProposalHandler)
		w.PUT("/proposal/acceptance", h.AcceptProposalHandler)
		w.POST("/identity/choice", h.ChooseAuthHandler)
		w.POST("/identity/login", h.LoginHandler)
		w.POST("/identity/register", h.RegisterHandler)
		w.PUT("/shipping", h.ShippingHandler)
		w.PUT("/quantity", h.QuantityHandler)
		w.POST("/price", h.PriceHandler)
		w.POST("/finish", h.FinishHandler)
		w.POST("/another", h.AnotherHandler)
		w.POST("/done", h.DoneHandler)
		w.GET("/ws", h.WebSocketHandler)
	}
}

type selectRequest struct {
	Field    string `json:"field" binding:"required"`
	OptionID int64  `json:"option_id"`
	Value    string `json:"value"`
}

type customizationRequest struct {
	Text string `json:"text"`
}

type acceptanceRequest struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

type choiceRequest struct {
	View string `json:"view" binding:"required,oneof=login register"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// OpenHandler starts a wizard for the caller's session.
func (h *WizardHandler) OpenHandler(c *gin.Context) {
	session := h.sessions(bearerToken(c))
	w := h.wizards.Open(c.Request.Context(), session)
	c.JSON(http.StatusCreated, w.Snapshot())
}

// StateHandler returns the current snapshot.
func (h *WizardHandler) StateHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// CancelHandler closes the wizard without submitting.
func (h *WizardHandler) CancelHandler(c *gin.Context) {
	w, err := h.wizards.Cancel(c.Param("id"))
	h.respond(c, w, err)
}

// SelectHandler applies a choice on the current step.
func (h *WizardHandler) SelectHandler(c *gin.Context) {
	var req selectRequest
	if !bind(c, &req) {
		return
	}
	field, ok := domain.ParseField(req.Field)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown field " + req.Field})
		return
	}
	w, err := h.wizards.Select(c.Request.Context(), c.Param("id"), application.Selection{
		Field:    field,
		OptionID: req.OptionID,
		Value:    req.Value,
	})
	h.respond(c, w, err)
}

// NextHandler advances one step.
func (h *WizardHandler) NextHandler(c *gin.Context) {
	w, err := h.wizards.Next(c.Request.Context(), c.Param("id"))
	h.respond(c, w, err)
}

// BackHandler goes back one step.
func (h *WizardHandler) BackHandler(c *gin.Context) {
	w, err := h.wizards.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, w, err)
}

// OptionsHandler returns the choice list of a step as currently loaded.
func (h *WizardHandler) OptionsHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	step, ok := parseStep(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.Options(step))
}

// ReloadOptionsHandler fetches the choice list of a step again.
func (h *WizardHandler) ReloadOptionsHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	step, ok := parseStep(c)
	if !ok {
		return
	}
	view, err := w.LoadOptions(c.Request.Context(), step)
	if err != nil {
		h.fail(c, w, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CustomizationHandler replaces the decoration text.
func (h *WizardHandler) CustomizationHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req customizationRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c, w, w.SetCustomization(req.Text))
}

// EnhanceHandler streams the enhanced decoration text as server-sent events:
// one "fragment" event per piece, then "done" with the final snapshot, or
// "superseded" when an edit took over, or "error". The response switches to
// an event stream on the first fragment; a run refused or failed before that
// gets a plain JSON error with its status.
func (h *WizardHandler) EnhanceHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	streaming := false
	startStream := func() {
		if streaming {
			return
		}
		streaming = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
	}

	err := w.Enhance(c.Request.Context(), func(frag string) {
		startStream()
		c.SSEvent("fragment", frag)
		c.Writer.Flush()
	})
	if err != nil && !streaming && !errors.Is(err, domain.ErrSuperseded) {
		h.fail(c, w, err)
		return
	}
	startStream()
	switch {
	case err == nil:
		c.SSEvent("done", w.Snapshot())
	case errors.Is(err, domain.ErrSuperseded):
		c.SSEvent("superseded", w.Snapshot())
	default:
		c.SSEvent("error", gin.H{"error": err.Error(), "state": w.Snapshot()})
	}
	c.Writer.Flush()
}

// ProposalHandler generates an image proposal.
func (h *WizardHandler) ProposalHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	_, err := w.GenerateProposal(c.Request.Context())
	h.respond(c, w, err)
}

// AcceptProposalHandler accepts or rejects the generated proposal.
func (h *WizardHandler) AcceptProposalHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req acceptanceRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c, w, w.AcceptProposal(*req.Accepted))
}

// ChooseAuthHandler opens the login or register form.
func (h *WizardHandler) ChooseAuthHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req choiceRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c, w, w.ChooseAuth(domain.IdentityView(req.View)))
}

// LoginHandler signs in and returns the session token with the snapshot.
func (h *WizardHandler) LoginHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	if err := w.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		h.fail(c, w, err)
		return
	}
	h.signedIn(c, w)
}

// RegisterHandler signs up and returns the session token with the snapshot.
func (h *WizardHandler) RegisterHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req domain.RegisterProfile
	if !bind(c, &req) {
		return
	}
	if err := w.Register(c.Request.Context(), req); err != nil {
		h.fail(c, w, err)
		return
	}
	h.signedIn(c, w)
}

// ShippingHandler updates the shipping form.
func (h *WizardHandler) ShippingHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req domain.ShippingProfile
	if !bind(c, &req) {
		return
	}
	h.respond(c, w, w.UpdateShipping(c.Request.Context(), req))
}

// QuantityHandler changes the quantity and re-quotes the price.
func (h *WizardHandler) QuantityHandler(c *gin.Context) {
	var req quantityRequest
	if !bind(c, &req) {
		return
	}
	w, err := h.wizards.SetQuantity(c.Request.Context(), c.Param("id"), req.Quantity)
	h.respond(c, w, err)
}

// PriceHandler retries the price quote.
func (h *WizardHandler) PriceHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	_, err := w.RefreshPrice(c.Request.Context())
	h.respond(c, w, err)
}

// FinishHandler submits the order.
func (h *WizardHandler) FinishHandler(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	receipt, err := w.Finish(c.Request.Context())
	if err != nil {
		h.fail(c, w, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt, "state": w.Snapshot()})
}

// AnotherHandler starts a further product on the same order.
func (h *WizardHandler) AnotherHandler(c *gin.Context) {
	w, err := h.wizards.AddAnother(c.Param("id"))
	h.respond(c, w, err)
}

// DoneHandler closes a submitted wizard.
func (h *WizardHandler) DoneHandler(c *gin.Context) {
	w, err := h.wizards.Done(c.Param("id"))
	h.respond(c, w, err)
}

// WebSocketHandler subscribes the connection to the wizard's snapshots.
func (h *WizardHandler) WebSocketHandler(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates are disabled"})
		return
	}
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	initial, err := ws.NewStateEvent(w.Snapshot())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ws.ServeWS(h.hub, w.ID(), &initial, c.Writer, c.Request)
}

func (h *WizardHandler) wizard(c *gin.Context) (*application.Wizard, bool) {
	w, err := h.wizards.Get(c.Param("id"))
	if err != nil {
		h.fail(c, nil, err)
		return nil, false
	}
	return w, true
}

func (h *WizardHandler) signedIn(c *gin.Context, w *application.Wizard) {
	body := gin.H{"state": w.Snapshot()}
	if th, ok := w.Session().(tokenHolder); ok {
		body["token"] = th.Token()
	}
	c.JSON(http.StatusOK, body)
}

func (h *WizardHandler) respond(c *gin.Context, w *application.Wizard, err error) {
	if err != nil {
		h.fail(c, w, err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

func (h *WizardHandler) fail(c *gin.Context, w *application.Wizard, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	body := gin.H{"error": err.Error()}
	if w != nil {
		body["state"] = w.Snapshot()
	}
	c.JSON(status, body)
}

// statusFor maps wizard errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnknownOption),
		errors.Is(err, domain.ErrEmptyCustomization):
		return http.StatusBadRequest
	case domain.IsRemote(err):
		return http.StatusBadGateway
	default:
		return http.StatusConflict
	}
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func parseStep(c *gin.Context) (domain.Step, bool) {
	step, ok := domain.ParseStep(c.Param("step"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown step " + c.Param("step")})
	}
	return step, ok
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
