package notify

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

// RecencyWindow bounds which rows are eligible to become snapshot
// notifications. Older rows age out of the feed on the next Refresh.
const RecencyWindow = 7 * 24 * time.Hour

// Source categories. The category is the first segment of every derived id.
const (
	CategoryArticle     = "article"
	CategoryReport      = "report"
	CategoryReportFiled = "report-new"
	CategoryCafePending = "cafe-pending"
	CategoryCafe        = "cafe"
	CategoryReview      = "review"
	CategoryAccount     = "account-active"
)

// Table names published on the change bus. Kept in one place so snapshot
// queries, live channels and the HTTP handlers can never disagree.
const (
	TableArticles = "articles"
	TableReports  = "reports"
	TableCafes    = "cafes"
	TableReviews  = "reviews"
	TableUsers    = "users"
	TableStates   = "notification_states"
)

// Record builders. Each category has exactly one builder used by both the
// snapshot queries and the live channels, so the two arrival paths always
// derive identical ids for the same underlying event.

func articleRecord(a models.Article) Record {
	at := a.UpdatedAt
	if a.PublishedAt != nil {
		at = *a.PublishedAt
	}
	return Record{
		ID:            DerivedID(CategoryArticle, a.ID, ""),
		Kind:          KindInfo,
		Title:         "New fact-check published",
		Message:       fmt.Sprintf("%q has been published", a.Title),
		HighlightText: a.Title,
		Link:          "/articles/" + a.Slug,
		OccurredAt:    at,
	}
}

func reportStatusRecord(r models.Report) Record {
	kind := KindInfo
	switch r.Status {
	case models.ReportResolved:
		kind = KindSuccess
	case models.ReportRejected:
		kind = KindWarning
	}
	return Record{
		ID:            DerivedID(CategoryReport, r.ID, r.Status),
		Kind:          kind,
		Title:         "Your report was updated",
		Message:       fmt.Sprintf("%q is now %s", r.Title, r.Status),
		HighlightText: r.Title,
		Link:          "/reports/" + r.ID.String(),
		OccurredAt:    r.UpdatedAt,
	}
}

func reportFiledRecord(r models.Report) Record {
	return Record{
		ID:            DerivedID(CategoryReportFiled, r.ID, ""),
		Kind:          KindWarning,
		Title:         "New citizen report",
		Message:       fmt.Sprintf("%q needs triage", r.Title),
		HighlightText: r.Title,
		Link:          "/admin/reports/" + r.ID.String(),
		OccurredAt:    r.CreatedAt,
	}
}

func cafePendingRecord(c models.Cafe) Record {
	return Record{
		ID:            DerivedID(CategoryCafePending, c.ID, ""),
		Kind:          KindWarning,
		Title:         "Cafe awaiting approval",
		Message:       fmt.Sprintf("%q was submitted for review", c.Name),
		HighlightText: c.Name,
		Link:          "/admin/cafes/" + c.ID.String(),
		OccurredAt:    c.CreatedAt,
	}
}

func cafeStatusRecord(c models.Cafe) Record {
	kind := KindSuccess
	title := "Your cafe was approved"
	if c.Status == models.CafeRejected {
		kind = KindAlert
		title = "Your cafe was rejected"
	}
	return Record{
		ID:            DerivedID(CategoryCafe, c.ID, c.Status),
		Kind:          kind,
		Title:         title,
		Message:       fmt.Sprintf("%q is now %s", c.Name, c.Status),
		HighlightText: c.Name,
		Link:          "/cafes/" + c.Slug,
		OccurredAt:    c.UpdatedAt,
	}
}

func reviewRecord(rv models.Review) Record {
	return Record{
		ID:            DerivedID(CategoryReview, rv.ID, ""),
		Kind:          KindInfo,
		Title:         "New review on " + rv.Cafe.Name,
		Message:       fmt.Sprintf("%d-star review on %q", rv.Rating, rv.Cafe.Name),
		HighlightText: rv.Cafe.Name,
		Link:          "/cafes/" + rv.Cafe.Slug + "#reviews",
		OccurredAt:    rv.CreatedAt,
	}
}

func accountActivatedRecord(u models.User) Record {
	return Record{
		ID:         DerivedID(CategoryAccount, u.ID, ""),
		Kind:       KindSuccess,
		Title:      "Account activated",
		Message:    "Your account is now active. Welcome to Nongkrongr!",
		Link:       "/profile",
		OccurredAt: u.UpdatedAt,
	}
}

// rolesIdentified gates a rule to any authenticated viewer.
var rolesIdentified = []string{models.RoleAdmin, models.RoleEditor, models.RoleOwner, models.RoleMember}

// roleMatch reports whether a viewer passes a rule's role gate. A nil role
// set is public and matches anonymous viewers too.
func roleMatch(roles []string, v Viewer) bool {
	if roles == nil {
		return true
	}
	if v.IsAnonymous() {
		return false
	}
	for _, r := range roles {
		if r == v.Role {
			return true
		}
	}
	return false
}

// querySpec is one role-gated snapshot sub-query.
type querySpec struct {
	ID    string
	Roles []string // nil = public
	Run   func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error)
}

// snapshotQueries is the full battery run on every snapshot pass. Adding a
// notification type means adding a row here (and usually a matching row in
// liveChannels) without touching merge or subscription code.
var snapshotQueries = []querySpec{
	{
		ID: "published-articles",
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var articles []models.Article
			err := db.Where("status = ? AND published_at >= ?", models.ArticlePublished, since).
				Find(&articles).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(articles))
			for _, a := range articles {
				out = append(out, articleRecord(a))
			}
			return out, nil
		},
	},
	{
		ID:    "my-report-updates",
		Roles: []string{models.RoleMember},
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var reports []models.Report
			err := db.Where("reporter_id = ? AND status <> ? AND updated_at >= ?",
				v.UserID, models.ReportOpen, since).
				Find(&reports).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(reports))
			for _, r := range reports {
				out = append(out, reportStatusRecord(r))
			}
			return out, nil
		},
	},
	{
		ID:    "new-reports",
		Roles: []string{models.RoleAdmin},
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var reports []models.Report
			err := db.Where("created_at >= ?", since).Find(&reports).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(reports))
			for _, r := range reports {
				out = append(out, reportFiledRecord(r))
			}
			return out, nil
		},
	},
	{
		ID:    "pending-cafes",
		Roles: []string{models.RoleAdmin},
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var cafes []models.Cafe
			err := db.Where("status = ? AND created_at >= ?", models.CafePending, since).
				Find(&cafes).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(cafes))
			for _, c := range cafes {
				out = append(out, cafePendingRecord(c))
			}
			return out, nil
		},
	},
	{
		ID:    "my-cafe-status",
		Roles: []string{models.RoleOwner},
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var cafes []models.Cafe
			err := db.Where("owner_id = ? AND status IN ? AND updated_at >= ?",
				v.UserID, []string{models.CafeApproved, models.CafeRejected}, since).
				Find(&cafes).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(cafes))
			for _, c := range cafes {
				out = append(out, cafeStatusRecord(c))
			}
			return out, nil
		},
	},
	{
		ID:    "reviews-on-my-cafes",
		Roles: []string{models.RoleOwner},
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var reviews []models.Review
			err := db.Joins("JOIN cafes ON cafes.id = reviews.cafe_id").
				Where("cafes.owner_id = ? AND reviews.user_id <> ? AND reviews.created_at >= ?",
					v.UserID, v.UserID, since).
				Preload("Cafe").
				Find(&reviews).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(reviews))
			for _, rv := range reviews {
				out = append(out, reviewRecord(rv))
			}
			return out, nil
		},
	},
	{
		// Two-step community lookup: first the viewer's own reviewed-cafe
		// set, then other people's newer reviews on those cafes. Both steps
		// complete before merge so the feed never flashes irrelevant rows.
		ID:    "community-reviews",
		Roles: []string{models.RoleMember},
		Run: func(db *gorm.DB, v Viewer, since time.Time) ([]Record, error) {
			var cafeIDs []string
			err := db.Model(&models.Review{}).
				Where("user_id = ?", v.UserID).
				Distinct().
				Pluck("cafe_id", &cafeIDs).Error
			if err != nil {
				return nil, err
			}
			if len(cafeIDs) == 0 {
				return nil, nil
			}
			var reviews []models.Review
			err = db.Where("cafe_id IN ? AND user_id <> ? AND created_at >= ?",
				cafeIDs, v.UserID, since).
				Preload("Cafe").
				Find(&reviews).Error
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(reviews))
			for _, rv := range reviews {
				out = append(out, reviewRecord(rv))
			}
			return out, nil
		},
	},
}

// channelSpec is one role-gated live subscription. Build translates a row
// change into zero or one record; db is available for membership checks that
// a raw change cannot answer on its own.
type channelSpec struct {
	ID    string
	Roles []string // nil = public
	Table string
	Push  bool // request a passive platform alert on delivery
	Build func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool)
}

// liveChannels mirrors snapshotQueries category by category. roleMatch is
// shared between the two tables, so snapshot and live gating cannot drift.
var liveChannels = []channelSpec{
	{
		ID:    "public-articles",
		Table: TableArticles,
		Push:  true,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			a, ok := ch.Row.(models.Article)
			if !ok || a.Status != models.ArticlePublished {
				return Record{}, false
			}
			if ch.Op == events.OpUpdate {
				if old, ok := ch.Old.(models.Article); ok && old.Status == models.ArticlePublished {
					return Record{}, false // already published, not a new event
				}
			}
			return articleRecord(a), true
		},
	},
	{
		ID:    "my-report-updates",
		Roles: []string{models.RoleMember},
		Table: TableReports,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			r, ok := ch.Row.(models.Report)
			if !ok || ch.Op != events.OpUpdate || r.ReporterID != v.UserID || r.Status == models.ReportOpen {
				return Record{}, false
			}
			if old, ok := ch.Old.(models.Report); ok && old.Status == r.Status {
				return Record{}, false
			}
			return reportStatusRecord(r), true
		},
	},
	{
		ID:    "new-reports",
		Roles: []string{models.RoleAdmin},
		Table: TableReports,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			r, ok := ch.Row.(models.Report)
			if !ok || ch.Op != events.OpInsert {
				return Record{}, false
			}
			return reportFiledRecord(r), true
		},
	},
	{
		ID:    "pending-cafes",
		Roles: []string{models.RoleAdmin},
		Table: TableCafes,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			c, ok := ch.Row.(models.Cafe)
			if !ok || ch.Op != events.OpInsert || c.Status != models.CafePending {
				return Record{}, false
			}
			return cafePendingRecord(c), true
		},
	},
	{
		ID:    "my-cafe-status",
		Roles: []string{models.RoleOwner},
		Table: TableCafes,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			c, ok := ch.Row.(models.Cafe)
			if !ok || ch.Op != events.OpUpdate || c.OwnerID != v.UserID {
				return Record{}, false
			}
			if c.Status != models.CafeApproved && c.Status != models.CafeRejected {
				return Record{}, false
			}
			if old, ok := ch.Old.(models.Cafe); ok && old.Status == c.Status {
				return Record{}, false
			}
			return cafeStatusRecord(c), true
		},
	},
	{
		ID:    "reviews-on-my-cafes",
		Roles: []string{models.RoleOwner},
		Table: TableReviews,
		Push:  true,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			rv, ok := ch.Row.(models.Review)
			if !ok || ch.Op != events.OpInsert || rv.UserID == v.UserID {
				return Record{}, false
			}
			if rv.Cafe.OwnerID != v.UserID {
				return Record{}, false
			}
			return reviewRecord(rv), true
		},
	},
	{
		ID:    "community-reviews",
		Roles: []string{models.RoleMember},
		Table: TableReviews,
		Push:  true,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			rv, ok := ch.Row.(models.Review)
			if !ok || ch.Op != events.OpInsert || rv.UserID == v.UserID {
				return Record{}, false
			}
			if db == nil {
				return Record{}, false
			}
			var mine int64
			if err := db.Model(&models.Review{}).
				Where("cafe_id = ? AND user_id = ?", rv.CafeID, v.UserID).
				Count(&mine).Error; err != nil || mine == 0 {
				return Record{}, false
			}
			return reviewRecord(rv), true
		},
	},
	{
		ID:    "account-activated",
		Roles: rolesIdentified,
		Table: TableUsers,
		Build: func(db *gorm.DB, v Viewer, ch events.Change) (Record, bool) {
			u, ok := ch.Row.(models.User)
			if !ok || ch.Op != events.OpUpdate || u.ID != v.UserID || u.Status != models.UserActive {
				return Record{}, false
			}
			if old, ok := ch.Old.(models.User); ok && old.Status != models.UserPending {
				return Record{}, false
			}
			return accountActivatedRecord(u), true
		},
	},
}
