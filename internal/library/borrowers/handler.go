package borrowers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bibliotecas-backend/internal/library/liberr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/borrowers", h.Create)
	r.GET("/borrowers", h.List)
	r.GET("/borrowers/detail/:id", h.Get)
	r.PUT("/borrowers/detail/:id", h.Update)
	r.DELETE("/borrowers/detail/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req BorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "id must be an integer"))
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "id must be an integer"))
		return
	}
	var req BorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, liberr.Body(liberr.CodeInvalidArgument, "id must be an integer"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		c.JSON(liberr.ToHTTPStatus(err), liberr.BodyFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}
