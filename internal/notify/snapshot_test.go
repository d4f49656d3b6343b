package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

func seedArticle(t *testing.T, db *gorm.DB, title string, publishedAt time.Time) models.Article {
	t.Helper()
	a := models.Article{
		AuthorID:    uuid.New(),
		Title:       title,
		Slug:        strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Status:      models.ArticlePublished,
		PublishedAt: &publishedAt,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSnapshotRoleGating(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	article := seedArticle(t, db, "Hoax debunked", now.Add(-time.Hour))

	memberID := uuid.New()
	report := models.Report{ReporterID: memberID, Title: "Broken lamp", Status: models.ReportResolved}
	if err := db.Create(&report).Error; err != nil {
		t.Fatal(err)
	}
	cafe := models.Cafe{OwnerID: uuid.New(), Name: "Kedai Pagi", Status: models.CafePending}
	if err := db.Create(&cafe).Error; err != nil {
		t.Fatal(err)
	}

	agg := NewAggregator(db)
	ctx := context.Background()

	ids := func(records []Record) map[string]bool {
		out := make(map[string]bool)
		for _, r := range records {
			out[r.ID] = true
		}
		return out
	}

	// Anonymous: public queries only.
	anon := ids(agg.Run(ctx, Anonymous("dev-1")))
	if !anon[DerivedID(CategoryArticle, article.ID, "")] {
		t.Error("anonymous viewer missing public article")
	}
	if len(anon) != 1 {
		t.Errorf("anonymous viewer got %d candidates, want 1: %v", len(anon), anon)
	}

	// Member: public plus own report updates.
	member := ids(agg.Run(ctx, Identified(memberID, models.RoleMember)))
	if !member[DerivedID(CategoryReport, report.ID, models.ReportResolved)] {
		t.Error("member missing own report update")
	}
	if member[DerivedID(CategoryCafePending, cafe.ID, "")] {
		t.Error("member received admin-gated candidate")
	}

	// Admin: triage queries, not member-personal ones.
	admin := ids(agg.Run(ctx, Identified(uuid.New(), models.RoleAdmin)))
	if !admin[DerivedID(CategoryCafePending, cafe.ID, "")] {
		t.Error("admin missing pending cafe")
	}
	if !admin[DerivedID(CategoryReportFiled, report.ID, "")] {
		t.Error("admin missing filed report")
	}
	if admin[DerivedID(CategoryReport, report.ID, models.ReportResolved)] {
		t.Error("admin received member-gated candidate")
	}
}

func TestSnapshotRecencyWindow(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	fresh := seedArticle(t, db, "Fresh", now.Add(-time.Hour))
	stale := seedArticle(t, db, "Stale", now.Add(-RecencyWindow-time.Hour))

	records := NewAggregator(db).Run(context.Background(), Anonymous("dev-1"))
	for _, r := range records {
		if r.ID == DerivedID(CategoryArticle, stale.ID, "") {
			t.Error("article outside the recency window surfaced")
		}
	}
	found := false
	for _, r := range records {
		if r.ID == DerivedID(CategoryArticle, fresh.ID, "") {
			found = true
		}
	}
	if !found {
		t.Error("recent article missing")
	}
}

func TestSnapshotSubQueryFailureIsNotFatal(t *testing.T) {
	db := openTestDB(t)
	article := seedArticle(t, db, "Survives", time.Now().Add(-time.Hour))

	agg := &Aggregator{db: db, queries: []querySpec{
		{
			ID: "broken",
			Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
				return nil, errors.New("backend unavailable")
			},
		},
		snapshotQueries[0], // published-articles
	}}

	records := agg.Run(context.Background(), Anonymous("dev-1"))
	if len(records) != 1 || records[0].ID != DerivedID(CategoryArticle, article.ID, "") {
		t.Fatalf("pass did not survive the failing sub-query: %v", records)
	}
}

func TestCommunityReviewsTwoStep(t *testing.T) {
	db := openTestDB(t)
	me := uuid.New()
	stranger := uuid.New()

	visited := models.Cafe{OwnerID: uuid.New(), Name: "Kopi Lama", Slug: "kopi-lama", Status: models.CafeApproved}
	unvisited := models.Cafe{OwnerID: uuid.New(), Name: "Kopi Baru", Slug: "kopi-baru", Status: models.CafeApproved}
	for _, c := range []*models.Cafe{&visited, &unvisited} {
		if err := db.Create(c).Error; err != nil {
			t.Fatal(err)
		}
	}

	mine := models.Review{CafeID: visited.ID, UserID: me, Rating: 4}
	theirs := models.Review{CafeID: visited.ID, UserID: stranger, Rating: 5}
	elsewhere := models.Review{CafeID: unvisited.ID, UserID: stranger, Rating: 3}
	for _, r := range []*models.Review{&mine, &theirs, &elsewhere} {
		if err := db.Create(r).Error; err != nil {
			t.Fatal(err)
		}
	}

	records := NewAggregator(db).Run(context.Background(), Identified(me, models.RoleMember))

	var got []string
	for _, r := range records {
		got = append(got, r.ID)
	}
	want := DerivedID(CategoryReview, theirs.ID, "")
	found := false
	for _, id := range got {
		if id == want {
			found = true
		}
		if id == DerivedID(CategoryReview, mine.ID, "") {
			t.Error("viewer's own review surfaced as community activity")
		}
		if id == DerivedID(CategoryReview, elsewhere.ID, "") {
			t.Error("review on an unvisited cafe surfaced")
		}
	}
	if !found {
		t.Errorf("community review missing from %v", got)
	}
}
