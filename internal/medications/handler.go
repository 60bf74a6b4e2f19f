package medications

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/families"
	"allie-backend/internal/shared/server/respond"
	"allie-backend/internal/shared/util"
)

const defaultLogWindow = 30 * 24 * time.Hour

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc      *Service
	Location *time.Location
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{Svc: svc, Location: loc}
}

// RegisterRoutes attaches medication, schedule and log routes. rg must run
// families.RequireFamily.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/medications", h.createMedication)
	rg.GET("/medications", h.listMedications)
	rg.GET("/medications/:id", h.getMedication)
	rg.PATCH("/medications/:id", h.updateMedication)
	rg.DELETE("/medications/:id", h.deleteMedication)
	rg.POST("/medications/:id/events/:eventId", h.connectEvent)
	rg.DELETE("/medications/:id/events/:eventId", h.disconnectEvent)
	rg.GET("/medications/:id/schedules", h.medicationSchedules)
	rg.POST("/medications/:id/logs", h.createLog)

	rg.POST("/medication-schedules", h.createSchedule)
	rg.GET("/medication-schedules/:id", h.getSchedule)
	rg.PATCH("/medication-schedules/:id", h.updateSchedule)
	rg.DELETE("/medication-schedules/:id", h.deleteSchedule)

	rg.GET("/members/:memberId/schedules", h.memberSchedules)
	rg.GET("/members/:memberId/medication-logs", h.memberLogs)
	rg.GET("/members/:memberId/adherence", h.memberAdherence)
}

func (h *Handler) createMedication(c *gin.Context) {
	var req medicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	in, err := req.toInput(h.Location)
	if err != nil {
		respond.Validation(c, err.Error())
		return
	}
	m, err := h.Svc.CreateMedication(c.Request.Context(), families.FamilyIDFromContext(c), in)
	if err != nil {
		fail(c, err, "failed to create medication")
		return
	}
	respond.Created(c, toMedicationResponse(m))
}

func (h *Handler) listMedications(c *gin.Context) {
	activeOnly := true
	if raw := strings.TrimSpace(c.Query("activeOnly")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Validation(c, "activeOnly must be true or false")
			return
		}
		activeOnly = v
	}
	meds, err := h.Svc.ListMedications(c.Request.Context(), families.FamilyIDFromContext(c), c.Query("memberId"), activeOnly)
	if err != nil {
		respond.Internal(c, "failed to list medications", err)
		return
	}
	resp := make([]MedicationResponse, 0, len(meds))
	for _, m := range meds {
		resp = append(resp, toMedicationResponse(m))
	}
	respond.OK(c, resp)
}

func (h *Handler) getMedication(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	m, err := h.Svc.GetMedication(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch medication")
		return
	}
	respond.OK(c, toMedicationResponse(m))
}

func (h *Handler) updateMedication(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	var req medicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	in, err := req.toInput(h.Location)
	if err != nil {
		respond.Validation(c, err.Error())
		return
	}
	m, err := h.Svc.UpdateMedication(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"), in)
	if err != nil {
		fail(c, err, "failed to update medication")
		return
	}
	respond.OK(c, toMedicationResponse(m))
}

func (h *Handler) deleteMedication(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	if err := h.Svc.DeleteMedication(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id")); err != nil {
		fail(c, err, "failed to delete medication")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) connectEvent(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	m, err := h.Svc.ConnectMedicalEvent(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"), c.Param("eventId"))
	if err != nil {
		fail(c, err, "failed to connect medical event")
		return
	}
	respond.OK(c, toMedicationResponse(m))
}

func (h *Handler) disconnectEvent(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	m, err := h.Svc.DisconnectMedicalEvent(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"), c.Param("eventId"))
	if err != nil {
		fail(c, err, "failed to disconnect medical event")
		return
	}
	respond.OK(c, toMedicationResponse(m))
}

func (h *Handler) medicationSchedules(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	schedules, err := h.Svc.SchedulesForMedication(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to list schedules")
		return
	}
	resp := make([]ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		resp = append(resp, toScheduleResponse(s))
	}
	respond.OK(c, resp)
}

func (h *Handler) createLog(c *gin.Context) {
	c.Set("medicationId", c.Param("id"))
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	ts, err := util.ParseOptionalDate(req.Timestamp, h.Location)
	if err != nil {
		respond.Validation(c, "timestamp must be YYYY-MM-DD or RFC 3339")
		return
	}
	in := LogInput{ScheduleID: req.ScheduleID, Timestamp: ts, Reason: req.Reason, Notes: req.Notes}

	ctx := c.Request.Context()
	familyID := families.FamilyIDFromContext(c)
	var entry Log
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "", LogStatusTaken:
		entry, err = h.Svc.LogTaken(ctx, familyID, c.Param("id"), in)
	case LogStatusSkipped:
		entry, err = h.Svc.LogSkipped(ctx, familyID, c.Param("id"), in)
	default:
		respond.Validation(c, "status must be taken or skipped")
		return
	}
	if err != nil {
		fail(c, err, "failed to log medication")
		return
	}
	respond.Created(c, toLogResponse(entry))
}

func (h *Handler) createSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	c.Set("medicationId", req.MedicationID)
	s, err := h.Svc.CreateSchedule(c.Request.Context(), families.FamilyIDFromContext(c), req.toInput())
	if err != nil {
		fail(c, err, "failed to create schedule")
		return
	}
	c.Set("scheduleId", s.ID)
	respond.Created(c, toScheduleResponse(s))
}

func (h *Handler) getSchedule(c *gin.Context) {
	c.Set("scheduleId", c.Param("id"))
	s, err := h.Svc.GetSchedule(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch schedule")
		return
	}
	respond.OK(c, toScheduleResponse(s))
}

func (h *Handler) updateSchedule(c *gin.Context) {
	c.Set("scheduleId", c.Param("id"))
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	s, err := h.Svc.UpdateSchedule(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"), req.toInput())
	if err != nil {
		fail(c, err, "failed to update schedule")
		return
	}
	respond.OK(c, toScheduleResponse(s))
}

func (h *Handler) deleteSchedule(c *gin.Context) {
	c.Set("scheduleId", c.Param("id"))
	if err := h.Svc.DeleteSchedule(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id")); err != nil {
		fail(c, err, "failed to delete schedule")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) memberSchedules(c *gin.Context) {
	c.Set("memberId", c.Param("memberId"))
	items, err := h.Svc.SchedulesForMember(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("memberId"))
	if err != nil {
		respond.Internal(c, "failed to list schedules", err)
		return
	}
	resp := make([]MemberScheduleResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toMemberScheduleResponse(item))
	}
	respond.OK(c, resp)
}

func (h *Handler) memberLogs(c *gin.Context) {
	c.Set("memberId", c.Param("memberId"))
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}
	logs, err := h.Svc.ListLogs(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("memberId"), start, end)
	if err != nil {
		fail(c, err, "failed to list medication logs")
		return
	}
	resp := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, toLogResponse(l))
	}
	respond.OK(c, resp)
}

func (h *Handler) memberAdherence(c *gin.Context) {
	c.Set("memberId", c.Param("memberId"))
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}
	stats, err := h.Svc.AdherenceStats(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("memberId"), start, end)
	if err != nil {
		fail(c, err, "failed to compute adherence")
		return
	}
	respond.OK(c, AdherenceResponse{
		Total:         stats.Total,
		Taken:         stats.Taken,
		Skipped:       stats.Skipped,
		AdherenceRate: stats.AdherenceRate,
		Start:         start,
		End:           end,
	})
}

// parseRange reads start and end query parameters. end defaults to now and
// start to 30 days before end. A calendar-date end covers the whole day.
func (h *Handler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	rawEnd := strings.TrimSpace(c.Query("end"))
	end, err := util.ParseDayEnd(rawEnd, h.Location)
	if err != nil {
		respond.Validation(c, "end must be YYYY-MM-DD or RFC 3339")
		return time.Time{}, time.Time{}, false
	}
	if end.IsZero() {
		end = h.Svc.now()
	}

	start, err := util.ParseDate(c.Query("start"), h.Location)
	if err != nil {
		respond.Validation(c, "start must be YYYY-MM-DD or RFC 3339")
		return time.Time{}, time.Time{}, false
	}
	if start.IsZero() {
		start = end.Add(-defaultLogWindow)
	}
	return start, end, true
}

func fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Validation(c, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.NotFound(c, "not found")
	default:
		respond.Internal(c, msg, err)
	}
}
