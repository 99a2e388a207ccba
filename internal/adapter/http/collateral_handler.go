package http

import (
	"net/http"

	"lendora-core/internal/usecase/ledger"

	"github.com/labstack/echo/v4"
)

type CollateralHandler struct{ uc *ledger.Usecase }

func NewCollateralHandler(uc *ledger.Usecase) *CollateralHandler {
	return &CollateralHandler{uc: uc}
}

type collateralReq struct {
	BorrowerID string `json:"borrower_id" validate:"required,hex32"`
	Asset      string `json:"asset"       validate:"required,asset"`
	Amount     uint64 `json:"amount"      validate:"required"`
}

func (h *CollateralHandler) PostCollateral(c echo.Context) error {
	var req collateralReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	pos, err := h.uc.Post(c.Request().Context(), req.BorrowerID, req.Asset, req.Amount)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, pos)
}

func (h *CollateralHandler) WithdrawCollateral(c echo.Context) error {
	var req collateralReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	pos, err := h.uc.Withdraw(c.Request().Context(), req.BorrowerID, req.Asset, req.Amount)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, pos)
}

func (h *CollateralHandler) ListPositions(c echo.Context) error {
	borrowerID := c.Param("borrower_id")
	if !reHex32.MatchString(borrowerID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "borrower_id must be 32-char lowercase hex"})
	}
	positions, err := h.uc.Positions(c.Request().Context(), borrowerID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"positions": positions})
}
