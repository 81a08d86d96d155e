package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vot-service/internal/http/middleware"
	"vot-service/internal/model"
	"vot-service/internal/service"
)

// multipart keys that carry photo files
var photoFormKeys = []string{"fotos", "imagen"}

type Handler struct {
	wizardService *service.WizardService
	reportService *service.ReportService
	log           zerolog.Logger
}

func NewHandler(
	wizardService *service.WizardService,
	reportService *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		wizardService: wizardService,
		reportService: reportService,
		log:           log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")
	api.Use(authMiddleware)

	// электрические, телематические столбы и predio
	wizards := api.Group("/wizards/:kind")
	{
		wizards.POST("", h.startWizard)
		wizards.GET("", h.listWizards)
		wizards.GET("/:id", h.getWizard)
		wizards.PUT("/:id/steps/:step", h.saveStep)
		wizards.GET("/:id/precheck", h.precheck)
		wizards.POST("/:id/publish", h.publish)
		wizards.GET("/:id/elementos", h.getPredioElements)
		wizards.PUT("/:id/elementos", h.savePredioElements)
	}

	api.GET("/stats/:kind", h.wizardStats)

	api.GET("/reports/:id", h.getReport)
	api.POST("/reports/:id/completar", h.completeReport)
	api.PATCH("/reports/:id/observaciones", h.updateReportObservations)
	api.GET("/predios/reports", h.listPredioReports)
	api.GET("/map/reports", h.reportMap)
}

func (h *Handler) startWizard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, ok := wizardKind(c)
	if !ok {
		return
	}

	if kind.IsPole() {
		summary, err := h.wizardService.StartPole(c.Request.Context(), principal, kind)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, successResponse(summary))
		return
	}

	var req service.StartPredioInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	summary, err := h.wizardService.StartPredio(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(summary))
}

func (h *Handler) listWizards(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, ok := wizardKind(c)
	if !ok {
		return
	}

	wizards, err := h.wizardService.List(c.Request.Context(), principal, kind)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(wizards))
}

func (h *Handler) getWizard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, id, ok := wizardRef(c)
	if !ok {
		return
	}

	wizard, err := h.wizardService.Get(c.Request.Context(), principal, kind, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(wizard))
}

func (h *Handler) saveStep(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, id, ok := wizardRef(c)
	if !ok {
		return
	}

	input, err := h.wizardService.NewStepInput(kind, c.Param("step"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		err = bindMultipartStep(c, input.Payload)
	} else {
		err = bindJSONStep(c, input.Payload)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.wizardService.SaveStep(c.Request.Context(), principal, kind, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) precheck(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, id, ok := wizardRef(c)
	if !ok {
		return
	}

	result, err := h.wizardService.Precheck(c.Request.Context(), principal, kind, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) publish(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, id, ok := wizardRef(c)
	if !ok {
		return
	}

	result, err := h.wizardService.Publish(c.Request.Context(), principal, kind, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	status := http.StatusOK
	if result.ReportID != nil {
		status = http.StatusCreated
	}
	c.JSON(status, successResponse(result))
}

func (h *Handler) getPredioElements(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := predioRef(c)
	if !ok {
		return
	}

	elements, err := h.wizardService.GetPredioElements(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(elements))
}

func (h *Handler) savePredioElements(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := predioRef(c)
	if !ok {
		return
	}

	var req service.PredioElementsInput
	if err := bindJSONStep(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	elements, err := h.wizardService.SavePredioElements(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(elements))
}

func (h *Handler) wizardStats(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	kind, ok := wizardKind(c)
	if !ok {
		return
	}

	stats, err := h.wizardService.Stats(c.Request.Context(), principal, kind)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) getReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := reportRef(c)
	if !ok {
		return
	}

	report, err := h.reportService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) completeReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := reportRef(c)
	if !ok {
		return
	}

	var req service.ReportCompleteInput
	var err error
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		err = bindMultipartStep(c, &req)
	} else {
		err = bindJSONStep(c, &req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.reportService.Complete(c.Request.Context(), principal, id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) updateReportObservations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, ok := reportRef(c)
	if !ok {
		return
	}

	var req service.ReportObservationsInput
	var err error
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		err = bindMultipartStep(c, &req)
	} else {
		err = bindJSONStep(c, &req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.reportService.UpdateObservations(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) listPredioReports(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var query service.PredioReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	page, err := h.reportService.ListPredio(c.Request.Context(), principal, query)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(page))
}

// reportMap answers with a bare GeoJSON FeatureCollection so map clients can
// load it directly.
func (h *Handler) reportMap(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter := service.MapFilter{}
	if raw := strings.TrimSpace(c.Query("tipo")); raw != "" {
		rt := model.ReportType(strings.ToLower(raw))
		filter.Type = &rt
	}

	fc, err := h.reportService.Map(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, fc)
}

func wizardKind(c *gin.Context) (model.WizardKind, bool) {
	kind, ok := model.ParseWizardKind(strings.ToLower(strings.TrimSpace(c.Param("kind"))))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("unknown wizard kind"))
		return "", false
	}
	return kind, true
}

func wizardRef(c *gin.Context) (model.WizardKind, uuid.UUID, bool) {
	kind, ok := wizardKind(c)
	if !ok {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid wizard id"))
		return "", uuid.Nil, false
	}
	return kind, id, true
}

func reportRef(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid report id"))
		return uuid.Nil, false
	}
	return id, true
}

// predioRef: element lists exist only on predio wizards.
func predioRef(c *gin.Context) (uuid.UUID, bool) {
	kind, id, ok := wizardRef(c)
	if !ok {
		return uuid.Nil, false
	}
	if kind != model.WizardPredio {
		c.JSON(http.StatusNotFound, errorResponse("not found"))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSONStep accepts an empty body as an empty payload.
func bindJSONStep(c *gin.Context, payload any) error {
	if err := c.ShouldBindJSON(payload); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// bindMultipartStep re-encodes the form values as a JSON object so that the
// same payload decoding applies to both content types.
func bindMultipartStep(c *gin.Context, payload any) error {
	form, err := c.MultipartForm()
	if err != nil {
		return err
	}

	values := make(map[string]string, len(form.Value))
	for key, vals := range form.Value {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return err
	}

	var files []*multipart.FileHeader
	for _, key := range photoFormKeys {
		files = append(files, form.File[key]...)
	}
	if len(files) == 0 {
		return nil
	}

	receiver, ok := payload.(service.PhotoReceiver)
	if !ok {
		return errors.New("this step does not accept photos")
	}
	uploads := make([]service.PhotoUpload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, service.PhotoUpload{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	receiver.SetPhotos(uploads)
	return nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		notReadyErr   *service.NotReadyError
		conflictErr   *service.ConflictError
		incompleteErr *service.IncompleteError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.As(err, &notReadyErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":        err.Error(),
			"step":         notReadyErr.Step,
			"missing_step": notReadyErr.Missing,
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"wizard_id": conflictErr.ExistingID,
		})
	case errors.As(err, &incompleteErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         err.Error(),
			"missing_steps": incompleteErr.Missing,
		})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
