package http

import (
	"crypto/subtle"
	"net/http"

	"lendora-core/internal/usecase/admin"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct{ uc *admin.Usecase }

func NewAdminHandler(uc *admin.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

// RequireAdminToken guards the params surface with a shared-secret header.
func RequireAdminToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			}
			return next(c)
		}
	}
}

func (h *AdminHandler) GetParams(c echo.Context) error {
	p, err := h.uc.Current(c.Request().Context())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) ListParamChanges(c echo.Context) error {
	changes, err := h.uc.Changes(c.Request().Context())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"changes": changes})
}

type setBaseRateReq struct {
	Actor       string `json:"actor"         validate:"required"`
	BaseRateBps uint64 `json:"base_rate_bps" validate:"required"`
}

func (h *AdminHandler) SetBaseRate(c echo.Context) error {
	var req setBaseRateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	p, err := h.uc.SetBaseRate(c.Request().Context(), req.Actor, req.BaseRateBps)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type setLiquidationReq struct {
	Actor        string `json:"actor"          validate:"required"`
	ThresholdBps uint64 `json:"threshold_bps"  validate:"required"`
	BonusBps     uint64 `json:"bonus_bps"`
}

func (h *AdminHandler) SetLiquidationParams(c echo.Context) error {
	var req setLiquidationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	p, err := h.uc.SetLiquidationParams(c.Request().Context(), req.Actor, req.ThresholdBps, req.BonusBps)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
