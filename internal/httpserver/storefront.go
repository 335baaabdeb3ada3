package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/kolshi/internal/cart"
	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
	catalogsvc "github.com/Skotchmaster/kolshi/internal/catalog/service"
	"github.com/Skotchmaster/kolshi/internal/checkout"
	"github.com/Skotchmaster/kolshi/internal/feedback"
	"github.com/Skotchmaster/kolshi/internal/session"
	"github.com/Skotchmaster/kolshi/internal/util"
	"github.com/Skotchmaster/kolshi/pkg/logging"
)

type StorefrontHTTP struct {
	Store    *checkout.Storefront
	Sessions *session.Manager
	Feedback *feedback.Log
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, feedback.ErrValidation),
		errors.Is(err, session.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, catalogsvc.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *StorefrontHTTP) fail(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err.Error())
		return c.JSON(status, "internal server error")
	}
	l.Warn(event, "status", status, "error", err.Error())
	return c.JSON(status, err.Error())
}

func pageParams(c echo.Context) (page, from, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	from, size = util.Calculate(page, size)
	return from/size + 1, from, size
}

func (h *StorefrontHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err.Error())
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Sessions.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return h.fail(c, "login_error", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     accessCookie,
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, LoginResponse{
		SessionID:     res.Session.ID,
		Username:      res.Session.User.Username,
		PurchaseCount: res.Session.User.PurchaseCount(),
		AccessToken:   res.AccessToken,
		ExpiresAt:     res.ExpiresAt,
	})
}

func (h *StorefrontHTTP) ListProducts(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "list.products")

	var q catalogsvc.Query
	if v := c.QueryParam("category"); v != "" {
		cat, ok := domain.ParseCategory(v)
		if !ok {
			l.Warn("list_products_error", "status", 400, "category", v)
			return c.JSON(http.StatusBadRequest, "unknown category")
		}
		q.Category = cat
	}
	sort, ok := catalogsvc.ParseSort(c.QueryParam("sort"))
	if !ok {
		l.Warn("list_products_error", "status", 400, "sort", c.QueryParam("sort"))
		return c.JSON(http.StatusBadRequest, "unknown sort")
	}
	q.Sort = sort
	q.Search = c.QueryParam("q")

	all := h.Store.Catalog.Browse(q)
	page, from, size := pageParams(c)
	return c.JSON(http.StatusOK, ProductListResponse{
		Total:    int64(len(all)),
		Page:     page,
		Size:     size,
		Products: toProductViews(window(all, from, size)),
	})
}

func (h *StorefrontHTTP) GetProduct(c echo.Context) error {
	p, err := h.Store.Catalog.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, toProductView(p))
}

func (h *StorefrontHTTP) NewArrivals(c echo.Context) error {
	return c.JSON(http.StatusOK, toProductViews(h.Store.Catalog.NewArrivals()))
}

func (h *StorefrontHTTP) Deals(c echo.Context) error {
	return c.JSON(http.StatusOK, DealsResponse{
		Rules:    catalogsvc.DealRules,
		Products: toProductViews(h.Store.Catalog.Deals()),
	})
}

func (h *StorefrontHTTP) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		logging.FromContext(c.Request().Context()).Warn("search_error", "status", 400)
		return c.JSON(http.StatusBadRequest, "query error")
	}

	page, from, size := pageParams(c)
	total, products, err := h.Store.Catalog.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return h.fail(c, "search_error", err)
	}
	return c.JSON(http.StatusOK, ProductListResponse{
		Total:    total,
		Page:     page,
		Size:     size,
		Products: toProductViews(products),
	})
}

func (h *StorefrontHTTP) GetCart(c echo.Context) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, toCartResponse(h.Store.Summary(sess)))
}

func (h *StorefrontHTTP) AddToCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "add.cart")

	sess, ok := sessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err.Error())
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || req.Quantity <= 0 {
		l.Warn("add_to_cart_error", "status", 400)
		return c.JSON(http.StatusBadRequest, "quantity>0 and product_id required")
	}

	if _, err := h.Store.AddToCart(c.Request().Context(), sess, req.ProductID, req.Quantity); err != nil {
		return h.fail(c, "add_to_cart_error", err)
	}
	return c.JSON(http.StatusCreated, toCartResponse(h.Store.Summary(sess)))
}

func (h *StorefrontHTTP) Checkout(c echo.Context) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	receipt, err := h.Store.Checkout(c.Request().Context(), sess)
	if err != nil {
		return h.fail(c, "checkout_error", err)
	}
	return c.JSON(http.StatusOK, toCheckoutResponse(receipt))
}

func (h *StorefrontHTTP) SubmitFeedback(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "submit.feedback")

	var entry feedback.Entry
	if err := c.Bind(&entry); err != nil {
		l.Warn("feedback_error", "status", 400, "error", err.Error())
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if err := h.Feedback.Append(c.Request().Context(), entry); err != nil {
		return h.fail(c, "feedback_error", err)
	}
	return c.JSON(http.StatusCreated, "thank you for your feedback")
}

func window(all []domain.Product, from, size int) []domain.Product {
	if from >= len(all) {
		return []domain.Product{}
	}
	end := from + size
	if end > len(all) {
		end = len(all)
	}
	return all[from:end]
}
