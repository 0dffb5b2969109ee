package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/internal/api/dto"
	"github.com/gocomet/bike-sharing/internal/domain/member"
)

// RegisterMember handles POST /v1/members
func (h *Handlers) RegisterMember(c *gin.Context) {
	var req dto.RegisterMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	m, err := req.ToMember()
	if err != nil {
		h.respondError(c, err)
		return
	}

	id, err := h.Members.Register(c.Request.Context(), m)
	if err != nil {
		h.respondError(c, err)
		return
	}

	registered, err := h.Members.Find(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewMemberResponse(registered))
}

// ListMembers handles GET /v1/members
func (h *Handlers) ListMembers(c *gin.Context) {
	members, err := h.Members.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, dto.NewMemberResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": out, "count": len(out)})
}

// GetMember handles GET /v1/members/:id
func (h *Handlers) GetMember(c *gin.Context) {
	m, err := h.Members.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMemberResponse(m))
}

// UpdateMember handles PUT /v1/members/:id
func (h *Handlers) UpdateMember(c *gin.Context) {
	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := h.Members.Update(c.Request.Context(), &member.Member{
		NationalID: c.Param("id"),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Note:       req.Note,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.GetMember(c)
}

// ChangeStartDate handles PUT /v1/members/:id/start-date
func (h *Handlers) ChangeStartDate(c *gin.Context) {
	var req dto.ChangeStartDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	date, err := dto.ParseDate(req.StartDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Members.ChangeStartDate(c.Request.Context(), c.Param("id"), date); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetMember(c)
}

// WithdrawMember handles POST /v1/members/:id/withdraw
func (h *Handlers) WithdrawMember(c *gin.Context) {
	if err := h.Members.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetMember(c)
}
