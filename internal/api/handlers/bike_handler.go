package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/internal/api/dto"
	"github.com/gocomet/bike-sharing/internal/domain/bike"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
)

// CreateBike handles POST /v1/bikes
func (h *Handlers) CreateBike(c *gin.Context) {
	var req dto.CreateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	id, err := h.Fleet.Create(c.Request.Context(), &bike.Bike{
		ID:       req.ID,
		Location: req.Location,
		Note:     req.Note,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	b, err := h.Fleet.Find(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBikeResponse(b))
}

// ListBikes handles GET /v1/bikes and GET /v1/bikes?available=true
func (h *Handlers) ListBikes(c *gin.Context) {
	var (
		bikes []*bike.Bike
		err   error
	)
	if available, _ := strconv.ParseBool(c.Query("available")); available {
		bikes, err = h.Fleet.ListAvailable(c.Request.Context())
	} else {
		bikes, err = h.Fleet.ListAll(c.Request.Context())
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.BikeResponse, 0, len(bikes))
	for _, b := range bikes {
		out = append(out, dto.NewBikeResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"bikes": out, "count": len(out)})
}

// GetBike handles GET /v1/bikes/:id
func (h *Handlers) GetBike(c *gin.Context) {
	id, ok := h.bikeID(c)
	if !ok {
		return
	}
	b, err := h.Fleet.Find(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBikeResponse(b))
}

// SendBikeToRepair handles POST /v1/bikes/:id/repair
func (h *Handlers) SendBikeToRepair(c *gin.Context) {
	h.changeBike(c, h.Fleet.SendToRepair)
}

// RetireBike handles POST /v1/bikes/:id/retire
func (h *Handlers) RetireBike(c *gin.Context) {
	h.changeBike(c, h.Fleet.Retire)
}

// ActivateBike handles POST /v1/bikes/:id/activate
func (h *Handlers) ActivateBike(c *gin.Context) {
	h.changeBike(c, h.Fleet.ReturnToService)
}

// UpdateBikeNote handles PUT /v1/bikes/:id/note
func (h *Handlers) UpdateBikeNote(c *gin.Context) {
	h.changeBike(c, h.Fleet.UpdateNote)
}

func (h *Handlers) changeBike(c *gin.Context, change func(ctx context.Context, id int64, note string) error) {
	id, ok := h.bikeID(c)
	if !ok {
		return
	}
	var req dto.NoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	if err := change(c.Request.Context(), id, req.Note); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetBike(c)
}

func (h *Handlers) bikeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.ErrBikeNotFound.WithMessagef("bike %q not found", c.Param("id")))
		return 0, false
	}
	return id, true
}
