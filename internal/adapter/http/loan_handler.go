package http

import (
	"net/http"

	"lendora-core/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type originateLoanReq struct {
	BorrowerID       string `json:"borrower_id"        validate:"required,hex32"`
	LenderID         string `json:"lender_id"          validate:"required,hex32"`
	Principal        uint64 `json:"principal"          validate:"required"`
	TermMonths       uint32 `json:"term_months"        validate:"required"`
	CollateralAsset  string `json:"collateral_asset"   validate:"required,asset"`
	CollateralAmount uint64 `json:"collateral_amount"  validate:"required"`
	Attestation      string `json:"attestation"        validate:"required,hex64"`
}

func (h *LoanHandler) OriginateLoan(c echo.Context) error {
	var req originateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Originate(c.Request().Context(), loan.OriginateInput(req))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type repayReq struct {
	Amount uint64 `json:"amount" validate:"required"`
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	res, err := h.uc.Repay(c.Request().Context(), loanID, req.Amount)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type checkHealthReq struct {
	LiquidatorID string `json:"liquidator_id" validate:"omitempty,hex32"`
}

func (h *LoanHandler) CheckHealth(c echo.Context) error {
	loanID := c.Param("loan_id")
	var req checkHealthReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	res, err := h.uc.CheckHealth(c.Request().Context(), loanID, req.LiquidatorID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) ExpireLoan(c echo.Context) error {
	res, err := h.uc.Expire(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetLoanRatio(c echo.Context) error {
	loanID := c.Param("loan_id")
	ratio, err := h.uc.Ratio(c.Request().Context(), loanID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"loan_id":   loanID,
		"ratio_bps": ratio,
	})
}

func (h *LoanHandler) ListLoanEvents(c echo.Context) error {
	events, err := h.uc.Events(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": events})
}
