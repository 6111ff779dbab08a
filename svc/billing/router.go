package billing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/core"
	"github.com/visitdesk/visitdesk/pkg/httpserver"
	"github.com/visitdesk/visitdesk/pkg/logger"
	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

// maxWebhookBody caps gateway deliveries. Paddle payloads are a few KB.
const maxWebhookBody = 1 << 20

// RouterConfig wires the HTTP surface's dependencies.
type RouterConfig struct {
	Service  subscription.Service
	Checkout subscription.CheckoutProvider // nil disables the checkout endpoint
	Plans    map[plan.Type]plan.Plan
	Addons   map[string]plan.Addon
	Log      *slog.Logger

	// CheckoutSuccessURL is where the gateway redirects after checkout.
	CheckoutSuccessURL string

	// Ready holds readiness probes (storage pings) for GET /health.
	Ready []func(context.Context) error
}

type router struct {
	svc        subscription.Service
	checkout   subscription.CheckoutProvider
	plans      map[plan.Type]plan.Plan
	addons     map[string]plan.Addon
	successURL string
	log        *slog.Logger
}

// NewRouter builds the billing API. Panics if the service is nil.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Service == nil {
		panic("billing: subscription service is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	rt := &router{
		svc:        cfg.Service,
		checkout:   cfg.Checkout,
		plans:      cfg.Plans,
		addons:     cfg.Addons,
		successURL: cfg.CheckoutSuccessURL,
		log:        cfg.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", httpserver.HealthCheckHandler(cfg.Log, cfg.Ready...))

	r.Post("/webhooks/paddle", rt.handlePaddleWebhook)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", rt.handleListPlans)
		r.Post("/checkout", rt.handleCheckout)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/limits/{resource}", rt.handleCheckLimit)
		})

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Get("/subscription", rt.handleStatus)
			r.Post("/subscription", rt.handleAssignPlan)
			r.Post("/subscription/trial", rt.handleGrantTrial)
			r.Post("/subscription/cancel", rt.handleCancel)
			r.Get("/modules/{module}", rt.handleCheckModule)
			r.Get("/history", rt.handleHistory)
			r.Get("/addons", rt.handleListAddons)
			r.Post("/addons", rt.handleGrantAddon)
		})
	})

	return r
}

// handlePaddleWebhook receives raw gateway deliveries. Domain errors map to
// 4xx so the gateway stops redelivering them; storage failures stay 5xx so
// it retries.
func (rt *router) handlePaddleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	sig := r.Header.Get("Paddle-Signature")
	if sig == "" {
		core.Render(w, r, core.JSONError(core.ErrUnauthorized))
		return
	}

	if err := rt.svc.HandleWebhook(r.Context(), payload, sig); err != nil {
		rt.log.ErrorContext(r.Context(), "webhook processing failed",
			logger.Component("billing"),
			logger.Error(err))
		core.Render(w, r, core.JSONError(err))
		return
	}

	core.Render(w, r, core.JSON("acknowledged", nil, nil))
}

func (rt *router) handleStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	st, err := rt.svc.Status(r.Context(), tenantID)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("subscription_status", toStatusDTO(st), nil))
}

func (rt *router) handleCheckLimit(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	res := plan.Resource(chi.URLParam(r, "resource"))

	if err := rt.svc.CheckLimit(r.Context(), userID, res); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("allowed", nil, nil))
}

func (rt *router) handleCheckModule(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	m := plan.Module(chi.URLParam(r, "module"))

	if err := rt.svc.CheckModule(r.Context(), tenantID, m); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("enabled", nil, nil))
}

type assignPlanRequest struct {
	PlanType  plan.Type  `json:"plan_type"`
	OrderID   string     `json:"order_id"`
	PaymentID string     `json:"payment_id"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// handleAssignPlan is the administrative plan assignment: same lifecycle
// path as a webhook purchase, but sourced to the admin and optionally
// backdated or future-dated.
func (rt *router) handleAssignPlan(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	var req assignPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	valErr := core.NewValidationError()
	if !req.PlanType.IsValid() {
		valErr.Add("plan_type", "unknown plan type")
	}
	if req.PaymentID == "" {
		valErr.Add("payment_id", "payment id is required")
	}
	if !valErr.IsEmpty() {
		core.Render(w, r, core.JSONError(valErr))
		return
	}

	rec, err := rt.svc.ActivatePlan(r.Context(), tenantID, req.PlanType, req.OrderID, req.PaymentID,
		subscription.ActivateOptions{StartDate: req.StartDate, Source: subscription.SourceAdmin})
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSONStatus(http.StatusCreated, "plan_assigned", toRecordDTO(rec)))
}

type grantTrialRequest struct {
	PaymentID string `json:"payment_id"`
}

func (rt *router) handleGrantTrial(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	var req grantTrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if req.PaymentID == "" {
		valErr := core.NewValidationError()
		valErr.Add("payment_id", "payment id is required")
		core.Render(w, r, core.JSONError(valErr))
		return
	}

	rec, err := rt.svc.ActivateTrial(r.Context(), tenantID, req.PaymentID)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSONStatus(http.StatusCreated, "trial_activated", toRecordDTO(rec)))
}

func (rt *router) handleCancel(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	if err := rt.svc.Cancel(r.Context(), tenantID); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("subscription_cancelled", nil, nil))
}

func (rt *router) handleHistory(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	entries, err := rt.svc.History(r.Context(), tenantID, pageFrom(r))
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("subscription_history", toHistoryDTOs(entries), nil))
}

func (rt *router) handleListAddons(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	recs, err := rt.svc.Addons(r.Context(), tenantID, pageFrom(r))
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("addons", toAddonDTOs(recs), nil))
}

type grantAddonRequest struct {
	AddonID   string `json:"addon_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

func (rt *router) handleGrantAddon(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	var req grantAddonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	valErr := core.NewValidationError()
	if req.AddonID == "" {
		valErr.Add("addon_id", "addon id is required")
	}
	if req.PaymentID == "" {
		valErr.Add("payment_id", "payment id is required")
	}
	if !valErr.IsEmpty() {
		core.Render(w, r, core.JSONError(valErr))
		return
	}

	rec, err := rt.svc.PurchaseAddon(r.Context(), tenantID, req.AddonID, req.OrderID, req.PaymentID)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSONStatus(http.StatusCreated, "addon_granted", toAddonDTOs([]subscription.AddonRecord{*rec})[0]))
}

// handleListPlans exposes the public slice of the catalog for pricing pages.
func (rt *router) handleListPlans(w http.ResponseWriter, r *http.Request) {
	out := make([]planDTO, 0, len(rt.plans))
	for _, t := range plan.Types {
		p, ok := rt.plans[t]
		if !ok || !p.Public {
			continue
		}
		out = append(out, toPlanDTO(p))
	}
	core.Render(w, r, core.JSON("plans", out, nil))
}

type checkoutRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	PlanType plan.Type `json:"plan_type,omitempty"`
	AddonID  string    `json:"addon_id,omitempty"`
	Email    string    `json:"email,omitempty"`
}

type checkoutResponse struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleCheckout opens a hosted checkout session for a catalog plan or
// add-on. The purchased item's identity travels in the session's custom data
// and comes back on the webhook.
func (rt *router) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if rt.checkout == nil {
		core.Render(w, r, core.JSONError(core.ErrNotFound))
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	valErr := core.NewValidationError()
	if req.TenantID == uuid.Nil {
		valErr.Add("tenant_id", "tenant id is required")
	}
	if req.PlanType == "" && req.AddonID == "" {
		valErr.Add("plan_type", "either plan_type or addon_id is required")
	}

	var priceID string
	switch {
	case req.AddonID != "":
		a, ok := rt.addons[req.AddonID]
		if !ok {
			valErr.Add("addon_id", "unknown addon")
		} else {
			priceID = a.PriceID
		}
	case req.PlanType != "":
		p, ok := rt.plans[req.PlanType]
		if !ok || !p.Public {
			valErr.Add("plan_type", "unknown plan type")
		} else {
			priceID = p.PriceID
		}
	}
	if !valErr.IsEmpty() {
		core.Render(w, r, core.JSONError(valErr))
		return
	}

	link, err := rt.checkout.CreateCheckoutLink(r.Context(), subscription.CheckoutRequest{
		PriceID:    priceID,
		TenantID:   req.TenantID,
		PlanType:   req.PlanType,
		AddonID:    req.AddonID,
		Email:      req.Email,
		SuccessURL: rt.successURL,
	})
	if err != nil {
		rt.log.ErrorContext(r.Context(), "checkout session failed",
			logger.Component("billing"),
			logger.TenantID(req.TenantID),
			logger.Error(err))
		core.Render(w, r, core.JSONError(err))
		return
	}

	core.Render(w, r, core.JSON("checkout_link", checkoutResponse{
		URL:       link.URL,
		SessionID: link.SessionID,
		ExpiresAt: link.ExpiresAt,
	}, nil))
}

func pageFrom(r *http.Request) subscription.Page {
	var page subscription.Page
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			page.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			page.Offset = n
		}
	}
	return page
}
