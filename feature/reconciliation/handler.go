package reconciliation

import (
	"errors"
	"time"

	"ledger-recon/core/logger"
	"ledger-recon/core/reconcile"
	"ledger-recon/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reconciliation runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the reconciliation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconciliation")
	group.Post("/runs", h.HandleStartRun)
	group.Get("/runs", h.HandleListRuns)
	group.Get("/runs/:id", h.HandleGetRun)
	group.Delete("/runs/:id", h.HandleCancelRun)
	group.Post("/runs/:id/render", h.HandleRerender)
	group.Get("/reports", h.HandleListReports)
}

// RunView is the JSON form of a tracked run.
type RunView struct {
	ID         string                  `json:"id"`
	Phase      reconcile.Phase         `json:"phase"`
	FilePath   string                  `json:"filePath"`
	ReportPath string                  `json:"reportPath"`
	StartedAt  time.Time               `json:"startedAt"`
	Stats      reconcile.StatsSnapshot `json:"stats"`
	Rendered   bool                    `json:"rendered"`
	Error      string                  `json:"error,omitempty"`
	Forward    int                     `json:"forwardDiscrepancies"`
	Backward   int                     `json:"backwardDiscrepancies"`
	Breakdown  map[reconcile.Kind]int  `json:"breakdown,omitempty"`

	Discrepancies *DiscrepancyLists `json:"discrepancies,omitempty"`
}

// DiscrepancyLists carries both discrepancy lists of a finished run.
type DiscrepancyLists struct {
	Forward  []reconcile.Discrepancy `json:"forward"`
	Backward []reconcile.Discrepancy `json:"backward"`
}

func newRunView(run *Run, withDiscrepancies bool) RunView {
	view := RunView{
		ID:         run.Handle.ID(),
		Phase:      run.Handle.Phase(),
		FilePath:   run.Request.FilePath,
		ReportPath: run.Request.ReportPath,
		StartedAt:  run.StartedAt,
		Stats:      run.Handle.Stats(),
	}

	res, err := run.Handle.Result()
	if err != nil {
		view.Error = err.Error()
	}
	if res == nil {
		return view
	}
	view.Stats = res.Stats
	view.Rendered = res.Rendered
	if res.Report != nil {
		view.Forward = len(res.Report.Forward)
		view.Backward = len(res.Report.Backward)
		view.Breakdown = res.Report.CountByKind()
		if withDiscrepancies {
			view.Discrepancies = &DiscrepancyLists{Forward: res.Report.Forward, Backward: res.Report.Backward}
		}
	}
	return view
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrRunActive), errors.Is(err, ErrNothingToRender):
		return fiber.StatusConflict
	case errors.Is(err, reconcile.ErrConfiguration):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

// HandleStartRun starts a two-way reconciliation.
// @Summary Start Reconciliation
// @Description Starts a two-way reconciliation of a transaction feed against the ledger. The run continues in the background; poll the returned id for progress. Query parameters override the body.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body Request false "Run request"
// @Param batch_size query int false "Records per ledger lookup"
// @Param workers query int false "Worker pool size"
// @Param threshold query number false "Fuzzy match threshold"
// @Success 202 {object} RunView
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /reconciliation/runs [post]
func (h *Handler) HandleStartRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if v := c.Query("batch_size"); v != "" {
		req.BatchSize = utils.ToInt(v)
	}
	if v := c.Query("workers"); v != "" {
		req.Workers = utils.ToInt(v)
	}
	if v := c.Query("threshold"); v != "" {
		req.MatchThreshold = utils.ToFloat(v)
	}

	run, err := h.service.Start(c.UserContext(), req)
	if err != nil {
		l.Error("Failed to start reconciliation", zap.Error(err))
		return fail(c, err)
	}

	l.Info("Reconciliation triggered", zap.String("run_id", run.Handle.ID()))
	return c.Status(fiber.StatusAccepted).JSON(newRunView(run, false))
}

// HandleListRuns lists tracked runs.
// @Summary List Reconciliation Runs
// @Description Lists every run started since the service came up, most recent first.
// @Tags reconciliation
// @Produce json
// @Success 200 {array} RunView
// @Router /reconciliation/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	runs := h.service.List()
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run, false))
	}
	return c.JSON(views)
}

// HandleGetRun returns one run.
// @Summary Get Reconciliation Run
// @Description Returns phase, counters and discrepancy totals of a run. Set discrepancies=true to include both lists.
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Param discrepancies query bool false "Include discrepancy lists"
// @Success 200 {object} RunView
// @Failure 404 {object} map[string]string "Run not found"
// @Router /reconciliation/runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	run, err := h.service.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(newRunView(run, utils.ToBool(c.Query("discrepancies"))))
}

// HandleCancelRun cancels a run.
// @Summary Cancel Reconciliation Run
// @Description Stops scheduling new batches. Batches already in flight complete and are counted.
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Success 202 {object} RunView
// @Failure 404 {object} map[string]string "Run not found"
// @Router /reconciliation/runs/{id} [delete]
func (h *Handler) HandleCancelRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.Cancel(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	l.Info("Reconciliation cancel requested", zap.String("run_id", run.Handle.ID()))
	return c.Status(fiber.StatusAccepted).JSON(newRunView(run, false))
}

// HandleRerender retries the report of a run.
// @Summary Re-render Report
// @Description Re-invokes only the report step of a finished run whose report could not be written.
// @Tags reconciliation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} RunView
// @Failure 404 {object} map[string]string "Run not found"
// @Failure 409 {object} map[string]string "Run active or already rendered"
// @Failure 500 {object} map[string]string "Report generation failed"
// @Router /reconciliation/runs/{id}/render [post]
func (h *Handler) HandleRerender(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id := c.Params("id")

	if _, err := h.service.Rerender(c.UserContext(), id); err != nil {
		l.Warn("Re-render failed", zap.String("run_id", id), zap.Error(err))
		return fail(c, err)
	}
	run, err := h.service.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(newRunView(run, false))
}

// HandleListReports lists uploaded reports.
// @Summary List Reports
// @Description Lists the report artifacts uploaded to object storage.
// @Tags reconciliation
// @Produce json
// @Success 200 {array} report.Object
// @Failure 400 {object} map[string]string "Uploads disabled"
// @Router /reconciliation/reports [get]
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	objects, err := h.service.Reports(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": len(objects), "reports": objects})
}
