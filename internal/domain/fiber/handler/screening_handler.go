package handler

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/export"
	"github.com/fadilmartias/scandid/internal/middleware"
	"github.com/fadilmartias/scandid/internal/response"
	"github.com/fadilmartias/scandid/internal/usecase"
	"github.com/fadilmartias/scandid/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// CandidateHeader identifies the submitting candidate.
const CandidateHeader = "X-Candidate-ID"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ScreeningHandler struct {
	uc               *usecase.ScreeningUsecase
	maxResumeBytes   int64
	leaderboardSize  int
	screenRateLimit  int
	screenRateWindow time.Duration
}

func NewScreeningHandler(uc *usecase.ScreeningUsecase, cfg *config.AppConfig) *ScreeningHandler {
	h := &ScreeningHandler{
		uc:               uc,
		maxResumeBytes:   cfg.MaxResumeBytes,
		leaderboardSize:  cfg.LeaderboardSize,
		screenRateLimit:  cfg.ScreenRateLimit,
		screenRateWindow: cfg.ScreenRateWindow,
	}
	if h.maxResumeBytes <= 0 {
		h.maxResumeBytes = 5 * 1024 * 1024
	}
	if h.leaderboardSize <= 0 {
		h.leaderboardSize = 10
	}
	return h
}

func (h *ScreeningHandler) RegisterRoutes(router fiber.Router) {
	screen := []fiber.Handler{h.Screen}
	if h.screenRateLimit > 0 {
		screen = append([]fiber.Handler{middleware.RateLimiter(h.screenRateLimit, h.screenRateWindow)}, screen...)
	}

	router.Get("/jobs", h.ListJobs)
	router.Get("/jobs/:role", h.GetJob)
	router.Post("/jobs/:role/screen", screen...)
	router.Get("/jobs/:role/leaderboard", h.Leaderboard)
}

func (h *ScreeningHandler) ListJobs(c *fiber.Ctx) error {
	jobs := h.uc.Jobs()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get jobs",
		Data:    jobs,
		Meta:    fiber.Map{"total": len(jobs)},
	})
}

func (h *ScreeningHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.uc.Job(c.Params("role"))
	if err != nil {
		return h.fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job",
		Data:    job,
	})
}

// Screen runs the pipeline on the uploaded resume and answer. With
// ?download=report the report is returned as a text attachment instead of
// the JSON result.
func (h *ScreeningHandler) Screen(c *fiber.Ctx) error {
	job, err := h.uc.Job(c.Params("role"))
	if err != nil {
		return h.fail(c, err)
	}

	// Header and form values alias the pooled request buffer and outlive
	// the handler once stored.
	candidateID := strings.TrimSpace(utils.CopyString(c.Get(CandidateHeader)))
	answer := utils.CopyString(c.FormValue("answer"))

	fields := make(map[string]string)
	if candidateID == "" {
		fields["candidate_id"] = fmt.Sprintf("%s header is required", CandidateHeader)
	}
	switch n := utf8.RuneCountInString(answer); {
	case strings.TrimSpace(answer) == "":
		fields["answer"] = "answer is required"
	case n > usecase.MaxAnswerChars:
		fields["answer"] = fmt.Sprintf("answer is too long (%d characters, max %d)", n, usecase.MaxAnswerChars)
	}

	file, err := c.FormFile("resume")
	switch {
	case err != nil:
		fields["resume"] = "resume file is required"
	case file.Size > h.maxResumeBytes:
		fields["resume"] = fmt.Sprintf("resume file size is too large (max %s)", humanSize(h.maxResumeBytes))
	case strings.ToLower(filepath.Ext(file.Filename)) != ".pdf":
		fields["resume"] = "unsupported resume file type, upload a PDF"
	}

	if len(fields) > 0 {
		return h.formError(c, util.NewFormError("invalid application", fields))
	}

	resume, err := file.Open()
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "cannot read resume file",
		}, err)
	}
	defer resume.Close()

	result, err := h.uc.ScreenDocument(c.UserContext(), job.Role, candidateID, resume, answer)
	if err != nil {
		return h.fail(c, err)
	}

	if c.Query("download") == "report" {
		c.Set(fiber.HeaderContentDisposition, attachment(export.ReportFilename(result.Role, result.CandidateID, result.Timestamp)))
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return c.SendString(result.ReportText)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success screen application",
		Data:    result,
	})
}

// Leaderboard serves the top standings of a role as JSON, CSV or XLSX.
func (h *ScreeningHandler) Leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.leaderboardSize)
	format := strings.ToLower(c.Query("format", "json"))

	fields := make(map[string]string)
	if limit < 0 {
		fields["limit"] = "limit must be zero (all rows) or positive"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		fields["format"] = "format must be one of json, csv, xlsx"
	}
	if len(fields) > 0 {
		return h.formError(c, util.NewFormError("invalid leaderboard query", fields))
	}

	job, standings, total, err := h.uc.Leaderboard(c.UserContext(), c.Params("role"), limit)
	if err != nil {
		return h.fail(c, err)
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := export.WriteLeaderboardCSV(&buf, standings); err != nil {
			return h.fail(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	case "xlsx":
		if err := export.WriteLeaderboardXLSX(&buf, job, standings, total, time.Now()); err != nil {
			return h.fail(c, err)
		}
		c.Set(fiber.HeaderContentType, xlsxContentType)
	default:
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Message:    "Success get leaderboard",
			Data:       standings,
			Pagination: response.FirstPage(limit, len(standings), total),
			Meta:       fiber.Map{"role": job.Role, "title": job.Title},
		})
	}

	c.Set(fiber.HeaderContentDisposition, attachment(export.LeaderboardFilename(job.Role, format)))
	return c.Send(buf.Bytes())
}

func (h *ScreeningHandler) formError(c *fiber.Ctx, fe *util.FormError) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: fe.Message,
		Details: fe.Errors,
	}, fe)
}

func (h *ScreeningHandler) fail(c *fiber.Ctx, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    StatusFor(err),
		Message: apperr.Message(err),
	}, err)
}

// StatusFor maps a pipeline error to its HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrTimeout:
		return fiber.StatusGatewayTimeout
	case apperr.ErrExtraction:
		return fiber.StatusUnprocessableEntity
	case apperr.ErrReportGeneration, apperr.ErrSimilarity:
		return fiber.StatusBadGateway
	case apperr.ErrInvalidInput:
		return fiber.StatusBadRequest
	case apperr.ErrNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func humanSize(n int64) string {
	if n >= 1024*1024 && n%(1024*1024) == 0 {
		return fmt.Sprintf("%dMB", n/(1024*1024))
	}
	return fmt.Sprintf("%d bytes", n)
}

func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}
