package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oldfield/dashboard/config"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/oldfield/dashboard/internal/sheet"
	log "github.com/sirupsen/logrus"
)

// IngestHandler handles admin ingestion endpoints
type IngestHandler struct {
	ingestSvc *services.FinanceIngestService
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(ingestSvc *services.FinanceIngestService) *IngestHandler {
	return &IngestHandler{
		ingestSvc: ingestSvc,
	}
}

// IngestFinance handles POST /admin/ingest/finance
// @Summary Ingest a finance workbook
// @Description Replaces the account's imported position snapshot with the uploaded workbook and appends a FINANCE manifest
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx or .csv)"
// @Param account_name formData string false "Account name (default Primary Portfolio)"
// @Param source_ref formData string false "Source reference (default file name)"
// @Param X-Admin-Token header string false "Admin token, required when ADMIN_TOKEN is set"
// @Success 200 {object} models.IngestReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/ingest/finance [post]
func (h *IngestHandler) IngestFinance(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "multipart field 'file' is required",
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}
	defer f.Close()

	wb, err := sheet.Read(fh.Filename, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_workbook",
			Message: err.Error(),
		})
		return
	}

	in := config.FinanceIngest{
		Path:        fh.Filename,
		AccountName: c.PostForm("account_name"),
		SourceRef:   c.PostForm("source_ref"),
	}.WithDefaults()
	log.Infof("Workbook upload: %s (%d bytes)", fh.Filename, fh.Size)

	report, err := h.ingestSvc.RunSource(c.Request.Context(), wb, in.AccountName, in.SourceRef)
	if err != nil {
		if errors.Is(err, services.ErrEmptyWorkbook) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_workbook",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
