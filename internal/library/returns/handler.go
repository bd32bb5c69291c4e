package returns

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bibliotecas-backend/internal/library/liberr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/returns", h.RecordReturn)
	r.GET("/returns", h.ListAll)
	r.GET("/returns/detail/:key", h.GetDetail)
	r.GET("/returns/by-loan/:loan_id", h.GetByLoan)
}

// ---------- handlers ----------

// POST /returns
func (h *Handler) RecordReturn(c *gin.Context) {
	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.RecordReturn(c.Request.Context(), req)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}

	c.Header("Location", "/returns/detail/"+res.ReturnULID)
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
	// service 層では不在はエラーではないのでHTTP境界で404に変換する
	if res == nil {
		c.JSON(http.StatusNotFound, liberr.Body(liberr.CodeNotFound, "return not found"))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetByLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "loan_id must be an integer"))
		return
	}
	res, err := h.svc.GetByLoanID(c.Request.Context(), loanID)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, liberr.Body(liberr.CodeNotFound, "no return recorded for this loan"))
		return
	}
	c.JSON(http.StatusOK, res)
}
