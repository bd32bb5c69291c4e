package fines

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bibliotecas-backend/internal/library/liberr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/fines", h.CreateManual)
	r.GET("/fines", h.ListAll)
	r.GET("/fines/detail/:key", h.GetDetail)
	r.POST("/fines/detail/:key/pay", h.RecordPayment)
	r.POST("/fines/detail/:key/waive", h.Waive)
	r.DELETE("/fines/detail/:key", h.Delete)
	r.GET("/fines/pending/:borrower_id", h.PendingForBorrower)
	r.GET("/fines/pending-total/:borrower_id", h.PendingTotal)
}

// ---------- handlers ----------

// POST /fines
func (h *Handler) CreateManual(c *gin.Context) {
	var req CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateManualFine(c.Request.Context(), req)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}

	c.Header("Location", "/fines/detail/"+res.FineULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListAll(c *gin.Context) {
	res, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetDetail(c *gin.Context) {
	res, err := h.svc.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req PayFineRequest
	// ボディなしの支払い（当日扱い）も許す
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "invalid json"))
			return
		}
	}

	if err := h.svc.RecordPayment(c.Request.Context(), c.Param("key"), req); err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Waive(c *gin.Context) {
	if err := h.svc.Waive(c.Request.Context(), c.Param("key")); err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.DeleteByKey(c.Request.Context(), c.Param("key")); err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PendingForBorrower(c *gin.Context) {
	borrowerID, err := strconv.ParseInt(c.Param("borrower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "borrower_id must be an integer"))
		return
	}
	res, err := h.svc.PendingForBorrower(c.Request.Context(), borrowerID)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PendingTotal(c *gin.Context) {
	borrowerID, err := strconv.ParseInt(c.Param("borrower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "borrower_id must be an integer"))
		return
	}
	res, err := h.svc.TotalPendingForBorrower(c.Request.Context(), borrowerID)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
