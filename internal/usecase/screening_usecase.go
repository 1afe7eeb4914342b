package usecase

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/dto"
	"github.com/fadilmartias/scandid/internal/leaderboard"
	"github.com/fadilmartias/scandid/internal/logger"
	"github.com/fadilmartias/scandid/internal/metrics"
	"github.com/fadilmartias/scandid/internal/model"
	"github.com/fadilmartias/scandid/internal/scoring"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxAnswerChars caps the open question answer.
const MaxAnswerChars = 3000

// WarningNoSubScores is attached to a result whose report had no N/10 scores.
const WarningNoSubScores = "The evaluation report contained no N/10 sub-scores, so the narrative score is 0."

// Pipeline stages, used as log and metric labels.
const (
	StageExtract    = "extract"
	StageSimilarity = "similarity"
	StageReport     = "report"
	StagePersist    = "persist"
)

type DocumentExtractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// ScreenRequest carries one submission through the pipeline.
type ScreenRequest struct {
	Role        string
	CandidateID string
	ResumeText  string
	Answer      string
}

type ScreeningUsecase struct {
	jobs       *config.JobCatalog
	extractor  DocumentExtractor
	similarity *scoring.SimilarityScorer
	reporter   scoring.ReportGenerator
	board      *leaderboard.Board
	metrics    *metrics.Manager
	logger     *zap.Logger
}

func NewScreeningUsecase(
	jobs *config.JobCatalog,
	extractor DocumentExtractor,
	similarity *scoring.SimilarityScorer,
	reporter scoring.ReportGenerator,
	board *leaderboard.Board,
	m *metrics.Manager,
	log *zap.Logger,
) *ScreeningUsecase {
	return &ScreeningUsecase{
		jobs:       jobs,
		extractor:  extractor,
		similarity: similarity,
		reporter:   reporter,
		board:      board,
		metrics:    m,
		logger:     logger.OrNop(log),
	}
}

func (uc *ScreeningUsecase) Jobs() []config.Job {
	return uc.jobs.List()
}

func (uc *ScreeningUsecase) Job(role string) (config.Job, error) {
	return uc.jobs.Get(role)
}

// ScreenDocument extracts the resume text and runs Screen. Nothing is scored
// when extraction fails.
func (uc *ScreeningUsecase) ScreenDocument(ctx context.Context, role, candidateID string, resume io.Reader, answer string) (*dto.ScreeningResultDTO, error) {
	job, err := uc.jobs.Get(role)
	if err != nil {
		return nil, err
	}
	if err := validateSubmitter(candidateID, answer); err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := uc.extractor.Extract(ctx, resume)
	uc.metrics.ObserveStage(StageExtract, time.Since(start))
	if err != nil {
		uc.failed(job.Role, candidateID, StageExtract, err)
		return nil, err
	}

	return uc.Screen(ctx, ScreenRequest{
		Role:        job.Role,
		CandidateID: candidateID,
		ResumeText:  text,
		Answer:      answer,
	})
}

// Screen scores a submission against the role's job description, records it
// and returns the scores with the candidate's current rank. Any failure
// before the record is written leaves the table untouched.
func (uc *ScreeningUsecase) Screen(ctx context.Context, req ScreenRequest) (*dto.ScreeningResultDTO, error) {
	job, err := uc.jobs.Get(req.Role)
	if err != nil {
		return nil, err
	}
	if err := validateSubmitter(req.CandidateID, req.Answer); err != nil {
		return nil, err
	}

	log := uc.logger.With(logger.Submission(req.CandidateID, job.Role)...)
	submission := scoring.CombineSubmission(req.ResumeText, req.Answer)

	var (
		similarity float64
		report     string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer func() { uc.metrics.ObserveStage(StageSimilarity, time.Since(start)) }()

		s, err := uc.similarity.Score(gctx, submission, job.Description)
		if err != nil {
			return err
		}
		similarity = s
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { uc.metrics.ObserveStage(StageReport, time.Since(start)) }()

		r, err := uc.reporter.GenerateReport(gctx, submission, job.Description)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.failed(job.Role, req.CandidateID, "scoring", err)
		return nil, err
	}

	subScores := scoring.ExtractScores(report)
	narrative := scoring.NarrativeScore(subScores)

	var warnings []string
	if len(subScores) == 0 {
		warnings = append(warnings, WarningNoSubScores)
		uc.metrics.ScoreWarning(job.Role)
		log.Warn("report has no sub-scores", zap.String("report", logger.TruncateForLog(report, 200)))
	}

	start := time.Now()
	rec, table, err := uc.board.Append(ctx, model.SubmissionRecord{
		Role:            job.Role,
		CandidateID:     strings.TrimSpace(req.CandidateID),
		SimilarityScore: similarity,
		NarrativeScore:  narrative,
	})
	uc.metrics.ObserveStage(StagePersist, time.Since(start))
	if err != nil {
		uc.failed(job.Role, req.CandidateID, StagePersist, err)
		return nil, err
	}

	standing, _ := leaderboard.Find(leaderboard.Rank(table), rec.ID)
	uc.metrics.ScreeningFinished(job.Role, metrics.OutcomeScored)
	log.Info("screening complete",
		zap.Float64("similarity_score", similarity),
		zap.Float64("narrative_score", narrative),
		zap.Float64("final_score", rec.FinalScore),
		zap.Int("rank", standing.Rank),
		zap.Int("sub_scores", len(subScores)),
	)

	return &dto.ScreeningResultDTO{
		ID:              rec.ID,
		Role:            rec.Role,
		CandidateID:     rec.CandidateID,
		SimilarityScore: rec.SimilarityScore,
		NarrativeScore:  rec.NarrativeScore,
		FinalScore:      rec.FinalScore,
		ReportText:      report,
		SubScores:       subScores,
		Warnings:        warnings,
		Rank:            standing.Rank,
		TotalCandidates: len(table),
		EmbeddingModel:  uc.similarity.Model(),
		ReportModel:     uc.reporter.Name(),
		Timestamp:       rec.Timestamp,
	}, nil
}

// Leaderboard returns the top n standings of role and the table size.
func (uc *ScreeningUsecase) Leaderboard(ctx context.Context, role string, n int) (config.Job, []leaderboard.Standing, int, error) {
	job, err := uc.jobs.Get(role)
	if err != nil {
		return config.Job{}, nil, 0, err
	}
	standings, total, err := uc.board.TopN(ctx, job.Role, n)
	if err != nil {
		return config.Job{}, nil, 0, err
	}
	return job, standings, total, nil
}

func (uc *ScreeningUsecase) failed(role, candidateID, stage string, err error) {
	uc.metrics.ScreeningFinished(role, metrics.OutcomeFailed)
	uc.logger.Error("screening failed",
		append(logger.Submission(candidateID, role),
			zap.String(logger.FieldStage, stage),
			zap.Error(err),
		)...,
	)
}

func validateSubmitter(candidateID, answer string) error {
	const op = "screening.validate"

	if strings.TrimSpace(candidateID) == "" {
		return apperr.Errorf(op, apperr.ErrInvalidInput, "candidate id is required")
	}
	if strings.TrimSpace(answer) == "" {
		return apperr.Errorf(op, apperr.ErrInvalidInput, "answer is required")
	}
	if n := utf8.RuneCountInString(answer); n > MaxAnswerChars {
		return apperr.Errorf(op, apperr.ErrInvalidInput, "answer is %d characters, the limit is %d", n, MaxAnswerChars)
	}
	return nil
}
