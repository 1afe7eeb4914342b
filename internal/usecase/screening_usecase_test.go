package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/leaderboard"
	"github.com/fadilmartias/scandid/internal/metrics"
	"github.com/fadilmartias/scandid/internal/repository"
	"github.com/fadilmartias/scandid/internal/scoring"
	"github.com/fadilmartias/scandid/internal/service"
	. "github.com/smartystreets/goconvey/convey"
)

const culinaryDescription = `Sous Chef. Prepare sauces, stocks and garnishes, run the grill station during dinner service,
train line cooks, maintain food safety and hygiene standards, plan seasonal menus with the head chef
and manage kitchen inventory and deliveries from suppliers.`

type stubExtractor struct {
	text  string
	err   error
	calls atomic.Int32
}

func (s *stubExtractor) Extract(_ context.Context, r io.Reader) (string, error) {
	s.calls.Add(1)
	_, _ = io.Copy(io.Discard, r)
	return s.text, s.err
}

type stubReporter struct {
	report string
	err    error
	calls  atomic.Int32
}

func (s *stubReporter) GenerateReport(ctx context.Context, submission, jobDescription string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return s.report, nil
}

func (s *stubReporter) Name() string { return "stub/reporter" }

// fixedEmbedder maps every text to the same vector except reference texts,
// which get ref. It pins similarity to cos(vec, ref).
type fixedEmbedder struct {
	vec, ref []float32
	refs     map[string]bool
}

func (e *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.refs[text] {
		return e.ref, nil
	}
	return e.vec, nil
}

func (e *fixedEmbedder) Model() string { return "fixed" }

type fixture struct {
	uc        *ScreeningUsecase
	store     *repository.MemoryStore
	extractor *stubExtractor
	reporter  *stubReporter
	metrics   *metrics.Manager
}

func newFixture(t *testing.T, embedder scoring.Embedder) *fixture {
	t.Helper()

	defaults, err := config.LoadJobCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	engineer, _ := defaults.Get("data-engineer")
	catalog, err := config.NewJobCatalog(engineer, config.Job{Role: "sous-chef", Title: "Sous Chef", Description: culinaryDescription})
	if err != nil {
		t.Fatal(err)
	}

	if embedder == nil {
		embedder, _ = service.NewHashingEmbedder(1024)
	}

	f := &fixture{
		store:     repository.NewMemoryStore(),
		extractor: &stubExtractor{text: "Experienced in SQL and Power BI"},
		reporter:  &stubReporter{report: "SQL: 8/10 ✅\nPower BI: 4/10 ⚠️\nSuggestions to improve your application:\n- add projects"},
		metrics:   metrics.NewManager(),
	}
	f.uc = NewScreeningUsecase(
		catalog,
		f.extractor,
		scoring.NewSimilarityScorer(embedder, scoring.WithVectorCache(scoring.NewMemoryVectorCache())),
		f.reporter,
		leaderboard.NewBoard(f.store, leaderboard.WithMetrics(f.metrics)),
		f.metrics,
		nil,
	)
	return f
}

func (f *fixture) rows(t *testing.T, role string) int {
	t.Helper()
	rows, err := f.store.Snapshot(context.Background(), role)
	if err != nil {
		t.Fatal(err)
	}
	return len(rows)
}

func TestScreenDocument(t *testing.T) {
	Convey("Given a screening pipeline", t, func() {
		f := newFixture(t, nil)
		ctx := context.Background()

		Convey("When a candidate submits a resume", func() {
			res, err := f.uc.ScreenDocument(ctx, "Data-Engineer", "alice", strings.NewReader("%PDF"), "I love BI dashboards")
			So(err, ShouldBeNil)

			Convey("Then both scores and the report are returned", func() {
				So(res.Role, ShouldEqual, "data-engineer")
				So(res.CandidateID, ShouldEqual, "alice")
				So(res.SimilarityScore, ShouldBeGreaterThan, 0)
				So(res.SimilarityScore, ShouldBeLessThanOrEqualTo, 1)
				So(res.SubScores, ShouldResemble, []float64{8, 4})
				So(res.NarrativeScore, ShouldAlmostEqual, 0.6, 1e-9)
				So(res.FinalScore, ShouldAlmostEqual, (res.SimilarityScore+0.6)/2, 1e-9)
				So(res.ReportText, ShouldContainSubstring, "Suggestions to improve")
				So(res.Warnings, ShouldBeEmpty)
				So(res.Rank, ShouldEqual, 1)
				So(res.TotalCandidates, ShouldEqual, 1)
				So(res.EmbeddingModel, ShouldEqual, "hashing-1024")
				So(res.ReportModel, ShouldEqual, "stub/reporter")
			})

			Convey("Then exactly one record is stored", func() {
				So(f.rows(t, "data-engineer"), ShouldEqual, 1)
			})
		})

		Convey("When extraction fails", func() {
			f.extractor.err = apperr.Errorf("extract.pdf", apperr.ErrExtraction, "invalid PDF")
			_, err := f.uc.ScreenDocument(ctx, "data-engineer", "alice", strings.NewReader("junk"), "answer")

			Convey("Then no scorer runs and nothing is stored", func() {
				So(errors.Is(err, apperr.ErrExtraction), ShouldBeTrue)
				So(f.reporter.calls.Load(), ShouldEqual, int32(0))
				So(f.rows(t, "data-engineer"), ShouldEqual, 0)
			})
		})

		Convey("When the report cannot be generated", func() {
			f.reporter.err = apperr.Wrap("groq.generate_report", apperr.ErrReportGeneration,
				apperr.Wrap("groq.generate_report", apperr.ErrTimeout, context.DeadlineExceeded))
			_, err := f.uc.ScreenDocument(ctx, "data-engineer", "alice", strings.NewReader("%PDF"), "answer")

			Convey("Then the timeout surfaces and nothing is stored", func() {
				So(errors.Is(err, apperr.ErrReportGeneration), ShouldBeTrue)
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrTimeout)
				So(f.rows(t, "data-engineer"), ShouldEqual, 0)
			})
		})

		Convey("When the report has no sub-scores", func() {
			f.reporter.report = "Looks like a decent fit overall."
			res, err := f.uc.ScreenDocument(ctx, "data-engineer", "alice", strings.NewReader("%PDF"), "answer")

			Convey("Then the record is stored with a zero narrative score and a warning", func() {
				So(err, ShouldBeNil)
				So(res.NarrativeScore, ShouldEqual, 0)
				So(res.Warnings, ShouldResemble, []string{WarningNoSubScores})
				So(res.ReportText, ShouldEqual, "Looks like a decent fit overall.")
				So(f.rows(t, "data-engineer"), ShouldEqual, 1)
			})
		})

		Convey("When the role is unknown", func() {
			_, err := f.uc.ScreenDocument(ctx, "astronaut", "alice", strings.NewReader("%PDF"), "answer")
			So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
			So(f.extractor.calls.Load(), ShouldEqual, int32(0))
		})
	})
}

func TestScreenRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  ScreenRequest
	}{
		{name: "blank candidate", req: ScreenRequest{Role: "data-engineer", CandidateID: " ", Answer: "a"}},
		{name: "blank answer", req: ScreenRequest{Role: "data-engineer", CandidateID: "alice", Answer: "\n"}},
		{name: "long answer", req: ScreenRequest{Role: "data-engineer", CandidateID: "alice", Answer: strings.Repeat("é", MaxAnswerChars+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.uc.Screen(context.Background(), tt.req)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if f.reporter.calls.Load() != 0 {
				t.Fatal("reporter should not be called")
			}
		})
	}
}

func TestScreenAcceptsMaxLengthAnswer(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.uc.Screen(context.Background(), ScreenRequest{
		Role:        "data-engineer",
		CandidateID: "alice",
		ResumeText:  "SQL",
		Answer:      strings.Repeat("é", MaxAnswerChars),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScreenNegativeSimilarityIsNotPersisted(t *testing.T) {
	defaults, _ := config.LoadJobCatalog("")
	engineer, _ := defaults.Get("data-engineer")

	emb := &fixedEmbedder{
		vec:  []float32{1, 0},
		ref:  []float32{-1, 0.1},
		refs: map[string]bool{engineer.Description: true},
	}
	f := newFixture(t, emb)

	_, err := f.uc.Screen(context.Background(), ScreenRequest{
		Role:        "data-engineer",
		CandidateID: "alice",
		ResumeText:  "anything",
		Answer:      "anything",
	})
	if !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if n := f.rows(t, "data-engineer"); n != 0 {
		t.Fatalf("expected no records, got %d", n)
	}
}

func TestScreenSimilarityIsDeterministic(t *testing.T) {
	f := newFixture(t, nil)
	req := ScreenRequest{Role: "data-engineer", CandidateID: "alice", ResumeText: "Experienced in SQL and Power BI", Answer: "I love BI dashboards"}

	first, err := f.uc.Screen(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.uc.Screen(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if first.SimilarityScore != second.SimilarityScore {
		t.Fatalf("similarity changed between runs: %v vs %v", first.SimilarityScore, second.SimilarityScore)
	}
	if second.TotalCandidates != 2 || second.Rank != 1 {
		t.Fatalf("expected both submissions to share rank 1 of 2, got rank %d of %d", second.Rank, second.TotalCandidates)
	}
}

func TestScreenRelevantRoleScoresHigher(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	engineer, err := f.uc.Screen(ctx, ScreenRequest{Role: "data-engineer", CandidateID: "alice", ResumeText: "Experienced in SQL and Power BI", Answer: "I love BI dashboards"})
	if err != nil {
		t.Fatal(err)
	}
	chef, err := f.uc.Screen(ctx, ScreenRequest{Role: "sous-chef", CandidateID: "alice", ResumeText: "Experienced in SQL and Power BI", Answer: "I love BI dashboards"})
	if err != nil {
		t.Fatal(err)
	}

	if engineer.SimilarityScore <= chef.SimilarityScore {
		t.Fatalf("expected data engineer similarity %v to exceed sous chef similarity %v", engineer.SimilarityScore, chef.SimilarityScore)
	}
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, c := range []string{"alice", "bob", "carol"} {
		if _, err := f.uc.Screen(ctx, ScreenRequest{Role: "data-engineer", CandidateID: c, ResumeText: "SQL " + c, Answer: "Power BI"}); err != nil {
			t.Fatal(err)
		}
	}

	job, standings, total, err := f.uc.Leaderboard(ctx, "DATA-ENGINEER", 2)
	if err != nil {
		t.Fatal(err)
	}
	if job.Role != "data-engineer" || total != 3 || len(standings) != 2 {
		t.Fatalf("unexpected leaderboard: role=%s total=%d len=%d", job.Role, total, len(standings))
	}

	if _, _, _, err := f.uc.Leaderboard(ctx, "astronaut", 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
