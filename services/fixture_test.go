package services

import (
	"math/rand/v2"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/repos"
	"github.com/vnkhanh/cogload-backend/testutil"
	"github.com/vnkhanh/cogload-backend/utils"
)

type fixture struct {
	db          *gorm.DB
	users       repos.UserRepo
	articles    repos.ArticleRepo
	annotations repos.AnnotationRepo

	assignment *AssignmentService
	annotate   *AnnotationService
	stats      *StatsService
	article    *ArticleService
	ingest     *IngestService
	export     *ExportService
	auth       *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	f := &fixture{
		db:          db,
		users:       repos.NewUserRepo(db, log),
		articles:    repos.NewArticleRepo(db, log),
		annotations: repos.NewAnnotationRepo(db, log),
	}
	f.assignment = NewAssignmentService(f.articles, log, WithRand(rand.New(rand.NewPCG(1, 2))))
	f.annotate = NewAnnotationService(f.articles, f.annotations, log)
	f.stats = NewStatsService(f.users, f.articles, f.annotations, 0, 0, log)
	f.article = NewArticleService(f.articles, f.annotations, log)
	f.ingest = NewIngestService(f.articles, nil, log)
	f.export = NewExportService(f.articles, f.annotations, log)
	f.auth = NewAuthService(f.users, utils.NewTokenIssuer("test-secret", time.Hour), log)
	return f
}

func ptrInt(v int) *FlexInt { i := FlexInt(v); return &i }

func ptrFloat(v float64) *FlexFloat { f := FlexFloat(v); return &f }

func validInput() AnnotationInput {
	return AnnotationInput{
		MentalEffortScore:        ptrInt(7),
		BackgroundKnowledgeScore: ptrInt(4),
		EmotionalDrainScore:      ptrInt(2),
		ClarityScore:             ptrInt(9),
		OptionalComments:         "dense but fair",
		TimeSpentSeconds:         ptrFloat(120.5),
		ScrollDepthPercent:       ptrFloat(88),
		PauseCount:               ptrInt(3),
		DifficultPassages: []PassageInput{
			{TextContent: "full text", StartOffset: ptrInt(0), EndOffset: ptrInt(9)},
		},
	}
}
