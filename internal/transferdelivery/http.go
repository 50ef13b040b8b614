// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/transferexport"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferResult, error)
	List(ctx context.Context, ownerID int64) ([]domain.Transfer, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	SourceAccountID int64  `json:"source_account_id" binding:"required,min=1"`
	DestAccountID   int64  `json:"dest_account_id" binding:"required,min=1"`
	Amount          string `json:"amount" binding:"required,decimal"`
}

type response struct {
	Data domain.TransferResult `json:"data,omitempty"`
}

type dataTransfers struct {
	Transfers []domain.Transfer `json:"transfers"`
}

type responseTransfers struct {
	Data dataTransfers `json:"data,omitempty"`
}

type ownerQuery struct {
	OwnerID int64 `form:"owner_id" binding:"required,min=1"`
}

func (h *Handler) fail(gctx *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case domain.KindNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case domain.KindConflict:
		gctx.JSON(http.StatusConflict, web.Error(err))
	case domain.KindTransferFailed:
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(domain.ErrInternal))
	}
}

// Create handles http request to create a transfer between two accounts.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	arg := domain.CreateTransferParams{
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		Amount:          req.Amount,
	}

	result, err := h.service.Transfer(ctx, arg)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: result})
}

func (h *Handler) listForOwner(gctx *gin.Context) ([]domain.Transfer, bool) {
	ctx := gctx.Request.Context()

	var req ownerQuery
	if err := gctx.ShouldBindQuery(&req); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return nil, false
	}

	transfers, err := h.service.List(ctx, req.OwnerID)
	if err != nil {
		h.fail(gctx, err)
		return nil, false
	}

	return transfers, true
}

// List handles http request to list transfers that touch accounts of an owner.
func (h *Handler) List(gctx *gin.Context) {
	transfers, ok := h.listForOwner(gctx)
	if !ok {
		return
	}

	gctx.JSON(http.StatusOK, responseTransfers{Data: dataTransfers{transfers}})
}

// Export handles http request to download the transfers of an owner as an xlsx workbook.
func (h *Handler) Export(gctx *gin.Context) {
	transfers, ok := h.listForOwner(gctx)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := transferexport.Write(&buf, transfers); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Msg("export transfers")
		gctx.JSON(http.StatusInternalServerError, web.Error(domain.ErrInternal))

		return
	}

	gctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="transfers-%s.xlsx"`, gctx.Query("owner_id")))
	gctx.Data(http.StatusOK, transferexport.ContentType, buf.Bytes())
}
