package loans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bibliotecas-backend/internal/library/liberr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/loans", h.CreateLoan)
	r.GET("/loans", h.ListAll)
	r.GET("/loans/active", h.ListActive)
	r.GET("/loans/overdue", h.FindOverdue)
	// 一覧取得と分離した明示的な延滞マーキング（cron等から叩く）
	r.POST("/loans/mark-overdue", h.MarkOverdue)
	r.GET("/loans/detail/:key", h.GetDetail)
	r.DELETE("/loans/detail/:key", h.Delete)
}

// ---------- handlers ----------

// POST /loans
func (h *Handler) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateLoan(c.Request.Context(), req)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}

	c.Header("Location", "/loans/detail/"+res.LoanULID)
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

func (h *Handler) ListActive(c *gin.Context) {
	res, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) FindOverdue(c *gin.Context) {
	res, err := h.svc.FindOverdue(c.Request.Context())
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkOverdue(c *gin.Context) {
	res, err := h.svc.MarkOverdue(c.Request.Context())
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

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.DeleteByKey(c.Request.Context(), c.Param("key")); err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}
