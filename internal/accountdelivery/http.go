// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	List(ctx context.Context, ownerID int64) ([]domain.Account, error)
	Delete(ctx context.Context, arg domain.DeleteAccountParams) (domain.Account, error)
	Patch(ctx context.Context, arg domain.PatchAccountParams) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

type dataAccounts struct {
	Accounts []domain.Account `json:"accounts"`
}

type responseAccounts struct {
	Data dataAccounts `json:"data,omitempty"`
}

func (h *Handler) fail(gctx *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case domain.KindNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case domain.KindConflict:
		gctx.JSON(http.StatusConflict, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(domain.ErrInternal))
	}
}

func (h *Handler) badRequest(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.BindingError(err))
}

type createRequest struct {
	OwnerID int64  `json:"owner_id" binding:"required,min=1"`
	Amount  string `json:"amount" binding:"required,decimal"`
}

// Create handles http request to open an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(gctx, err)
		return
	}

	account, err := h.service.Create(ctx, domain.CreateAccountParams{
		OwnerID: req.OwnerID,
		Amount:  req.Amount,
	})
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

type ownerQuery struct {
	OwnerID int64 `form:"owner_id" binding:"required,min=1"`
}

// List handles http request to list accounts of an owner.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req ownerQuery
	if err := gctx.ShouldBindQuery(&req); err != nil {
		h.badRequest(gctx, err)
		return
	}

	accounts, err := h.service.List(ctx, req.OwnerID)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseAccounts{Data: dataAccounts{accounts}})
}

type accountURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Delete handles http request to close an account of an owner.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		h.badRequest(gctx, err)
		return
	}

	var query ownerQuery
	if err := gctx.ShouldBindQuery(&query); err != nil {
		h.badRequest(gctx, err)
		return
	}

	account, err := h.service.Delete(ctx, domain.DeleteAccountParams{
		ID:      uri.ID,
		OwnerID: query.OwnerID,
	})
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

type patchRequest struct {
	Delta string `json:"delta" binding:"required,decimal"`
}

// Patch handles http request to apply a signed delta to an account balance.
func (h *Handler) Patch(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		h.badRequest(gctx, err)
		return
	}

	var req patchRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(gctx, err)
		return
	}

	account, err := h.service.Patch(ctx, domain.PatchAccountParams{
		ID:    uri.ID,
		Delta: req.Delta,
	})
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}
