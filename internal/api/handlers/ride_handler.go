package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/internal/api/dto"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/pkg/cache"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
)

// IdempotencyHeader names the request header carrying the client's key
const IdempotencyHeader = "Idempotency-Key"

// OpenRide handles POST /v1/rides
func (h *Handlers) OpenRide(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OpenRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	key := c.GetHeader(IdempotencyHeader)
	var fingerprint string
	if key != "" && h.Idempotency != nil {
		canonical, err := json.Marshal(req)
		if err != nil {
			h.badRequest(c, err)
			return
		}
		fingerprint = cache.Fingerprint(c.Request.Method, c.FullPath(), canonical)

		stored, err := h.Idempotency.Begin(ctx, key, fingerprint)
		switch {
		case errors.Is(err, cache.ErrFingerprintMismatch):
			h.respondError(c, apperrors.ErrIdempotencyKeyReused.WithMessagef("Idempotency-Key %q belongs to a different request", key))
			return
		case errors.Is(err, cache.ErrInFlight):
			h.respondError(c, apperrors.ErrDuplicateRequest.WithMessage("A request with this Idempotency-Key is still being processed"))
			return
		case err != nil:
			h.Logger.Warn("Idempotency store unavailable, continuing without it",
				logger.String("idempotency_key", key),
				logger.Err(err),
			)
			key = ""
		case stored != nil:
			h.Logger.Info("Returning cached ride response", logger.String("idempotency_key", key))
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, gin.MIMEJSON, stored.Body)
			return
		}
	} else {
		key = ""
	}

	opened, err := h.Rentals.OpenRide(ctx, req.ToRide())
	if err != nil {
		status, body := errorStatus(err)
		h.finishIdempotent(ctx, key, fingerprint, status, body)
		h.respondError(c, err)
		return
	}

	resp := dto.NewRideResponse(opened)
	h.finishIdempotent(ctx, key, fingerprint, http.StatusCreated, resp)
	c.JSON(http.StatusCreated, resp)
}

// finishIdempotent stores the outcome under key. Server errors release the
// key instead so the client can retry.
func (h *Handlers) finishIdempotent(ctx context.Context, key, fingerprint string, status int, body interface{}) {
	if key == "" {
		return
	}
	if status >= http.StatusInternalServerError {
		if err := h.Idempotency.Abort(ctx, key); err != nil {
			h.Logger.Warn("Failed to release idempotency key", logger.String("idempotency_key", key), logger.Err(err))
		}
		return
	}

	data, err := json.Marshal(body)
	if err == nil {
		err = h.Idempotency.Complete(ctx, key, fingerprint, cache.Response{Status: status, Body: data})
	}
	if err != nil {
		h.Logger.Warn("Failed to cache ride response", logger.String("idempotency_key", key), logger.Err(err))
	}
}

// GetRide handles GET /v1/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	id, ok := h.rideID(c)
	if !ok {
		return
	}
	r, err := h.Rentals.GetRide(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRideResponse(r))
}

// ListRides handles GET /v1/rides?member_id=&bike_id=&open=&limit=
func (h *Handlers) ListRides(c *gin.Context) {
	var filter ride.Filter
	if memberID := c.Query("member_id"); memberID != "" {
		m, err := h.Members.Find(c.Request.Context(), memberID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.MemberID = m.NationalID
	}
	if raw := c.Query("bike_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.badRequest(c, err)
			return
		}
		filter.BikeID = id
	}
	filter.OpenOnly, _ = strconv.ParseBool(c.Query("open"))
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.badRequest(c, err)
			return
		}
		filter.Limit = limit
	}

	rides, err := h.Ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]dto.RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, dto.NewRideResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"rides": out, "count": len(out)})
}

// CloseRide handles POST /v1/rides/:id/close
func (h *Handlers) CloseRide(c *gin.Context) {
	id, ok := h.rideID(c)
	if !ok {
		return
	}
	closed, err := h.Rentals.CloseRide(c.Request.Context(), &id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRideResponse(closed))
}

func (h *Handlers) rideID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.ErrRideNotFound.WithMessagef("ride %q not found", c.Param("id")))
		return 0, false
	}
	return id, true
}
