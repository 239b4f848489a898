package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/metrics"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store with per-method error injection.
type fakeStore struct {
	users        map[string]*database.User
	articles     []database.Article
	interactions []database.Interaction
	tags         map[string]*database.TagProfile
	comments     []database.Comment
	unhydratable map[string]bool

	errUser, errArticles, errInteractions, errTags, errComments, errHydrate error
}

func newFakeStore(users ...*database.User) *fakeStore {
	s := &fakeStore{
		users:        map[string]*database.User{},
		tags:         map[string]*database.TagProfile{},
		unhydratable: map[string]bool{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*database.User, error) {
	if s.errUser != nil {
		return nil, s.errUser
	}
	return s.users[id], nil
}

func (s *fakeStore) ListActiveArticles(context.Context) ([]database.Article, error) {
	if s.errArticles != nil {
		return nil, s.errArticles
	}
	out := make([]database.Article, len(s.articles))
	copy(out, s.articles)
	return out, nil
}

func (s *fakeStore) GetInteractionsForUsers(_ context.Context, ids []string) ([]database.Interaction, error) {
	if s.errInteractions != nil {
		return nil, s.errInteractions
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []database.Interaction
	for _, i := range s.interactions {
		if want[i.UserID] {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *fakeStore) GetTagProfiles(_ context.Context, ids []string) (map[string]*database.TagProfile, error) {
	if s.errTags != nil {
		return nil, s.errTags
	}
	out := map[string]*database.TagProfile{}
	for _, id := range ids {
		if tp, ok := s.tags[id]; ok {
			out[id] = tp
		}
	}
	return out, nil
}

func (s *fakeStore) GetCommentsByAuthor(_ context.Context, id string) ([]database.Comment, error) {
	if s.errComments != nil {
		return nil, s.errComments
	}
	var out []database.Comment
	for _, c := range s.comments {
		if c.AuthorID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

// HydrateArticles answers in reverse order so callers must reorder.
func (s *fakeStore) HydrateArticles(_ context.Context, ids []string) ([]database.HydratedArticle, error) {
	if s.errHydrate != nil {
		return nil, s.errHydrate
	}
	byID := map[string]database.Article{}
	for _, a := range s.articles {
		byID[a.ID] = a
	}
	var out []database.HydratedArticle
	for i := len(ids) - 1; i >= 0; i-- {
		a, ok := byID[ids[i]]
		if !ok || s.unhydratable[a.ID] {
			continue
		}
		out = append(out, database.HydratedArticle{Article: a, Photos: []database.Photo{}})
	}
	return out, nil
}

func (s *fakeStore) addArticle(id, author, scope string, age time.Duration) {
	s.articles = append(s.articles, database.Article{
		ID:        id,
		AuthorID:  author,
		Scope:     scope,
		CreatedAt: testNow.Add(-age).UnixMilli(),
	})
}

func (s *fakeStore) interact(user, article, action string) {
	s.interactions = append(s.interactions, database.Interaction{UserID: user, ArticleID: article, Action: action})
}

func newTestRecommender(t *testing.T, store Store) *Recommender {
	t.Helper()
	r, err := NewRecommender(store, DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRecommender: %v", err)
	}
	r.SetClock(func() time.Time { return testNow })
	return r
}

func detailIDs(details []ScoreDetail) []string {
	ids := make([]string, len(details))
	for i, d := range details {
		ids[i] = d.ArticleID
	}
	return ids
}

func articleIDs(articles []database.HydratedArticle) []string {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	return ids
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNoHistoryRanksByFreshness(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.addArticle("old", "bob", "", 48*time.Hour)
	s.addArticle("fresh", "bob", "", 10*time.Minute)
	s.addArticle("older", "bob", "", 40*24*time.Hour)

	res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range res.Details {
		if d.ContentScore != 0 || d.CollaborativeScore != 0 {
			t.Errorf("expected zero content and collaborative scores, got %+v", d)
		}
	}
	want := []string{"fresh", "old", "older"}
	if got := detailIDs(res.Details); !reflect.DeepEqual(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
	if res.Details[0].FinalScore != 50 {
		t.Errorf("expected fresh article to score 50, got %v", res.Details[0].FinalScore)
	}
}

func TestSelfLikeCollaborativeScore(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.addArticle("x", "bob", "", 48*time.Hour)
	s.addArticle("y", "bob", "", 48*time.Hour)
	s.interact("alice", "x", database.ActionLike)

	scores, err := CollaborativeScores(context.Background(), s, "alice", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["x"] != 4 {
		t.Errorf("expected collaborative score 4 for x, got %v", scores["x"])
	}
	if scores["y"] != 0 {
		t.Errorf("expected collaborative score 0 for y, got %v", scores["y"])
	}
}

func TestCollaborativeScoresWeights(t *testing.T) {
	s := newFakeStore()
	// a: 1*2 + 2*0.5 + 1*0.5. b counts both views.
	s.interact("alice", "a", database.ActionView)
	s.interact("bob", "a", database.ActionLike)
	s.interact("carol", "a", database.ActionView)
	s.interact("bob", "b", database.ActionView)
	s.interact("bob", "b", database.ActionView)
	s.interact("stranger", "a", database.ActionLike)
	s.interact("alice", "c", "share")

	scores, err := CollaborativeScores(context.Background(), s, "alice", []string{"bob"}, []string{"carol", "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(scores["a"], 3.5) {
		t.Errorf("expected 3.5 for a, got %v", scores["a"])
	}
	if !approx(scores["b"], 1) {
		t.Errorf("expected 1 for b, got %v", scores["b"])
	}
	if _, ok := scores["c"]; ok {
		t.Errorf("expected unknown action to be ignored, got %v", scores["c"])
	}
}

func TestSocialCircleDeduplicates(t *testing.T) {
	got := socialCircle("alice", []string{"bob", "alice"}, []string{"bob", "carol"})
	want := []string{"alice", "bob", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBuildUserTagProfile(t *testing.T) {
	s := newFakeStore()
	s.interact("alice", "a", database.ActionView)
	s.interact("alice", "a", database.ActionLike)
	s.interact("alice", "b", database.ActionView)
	s.interact("bob", "c", database.ActionView)
	s.tags["a"] = &database.TagProfile{ArticleID: "a", Tags: []string{"go", "db"}, ImageTags: []database.ImageTag{{Tag: "cat", Weight: 0.5}}}
	s.tags["b"] = &database.TagProfile{ArticleID: "b", Tags: []string{"go"}, ImageTags: []database.ImageTag{{Tag: "go", Weight: 0.25}}}
	s.tags["c"] = &database.TagProfile{ArticleID: "c", Tags: []string{"rust"}}

	profile, err := BuildUserTagProfile(context.Background(), s, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := UserTagProfile{"go": 2.25, "db": 1, "cat": 0.5}
	if !reflect.DeepEqual(profile, want) {
		t.Errorf("expected %v, got %v", want, profile)
	}
}

func TestBuildUserTagProfileNoHistory(t *testing.T) {
	s := newFakeStore()
	s.errTags = errors.New("should not be called")

	profile, err := BuildUserTagProfile(context.Background(), s, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile) != 0 {
		t.Errorf("expected empty profile, got %v", profile)
	}
}

func TestContentScore(t *testing.T) {
	user := UserTagProfile{"go": 2, "cat": 0.5}
	tests := []struct {
		name    string
		article *database.TagProfile
		user    UserTagProfile
		want    float64
	}{
		{"nil article", nil, user, 0},
		{"empty user", &database.TagProfile{Tags: []string{"go"}}, UserTagProfile{}, 0},
		{"plain tags", &database.TagProfile{Tags: []string{"go", "rust"}}, user, 2},
		{"image tags", &database.TagProfile{ImageTags: []database.ImageTag{{Tag: "cat", Weight: 0.8}}}, user, 0.4},
		{"both", &database.TagProfile{Tags: []string{"go"}, ImageTags: []database.ImageTag{{Tag: "go", Weight: 0.5}}}, user, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentScore(tt.article, tt.user); !approx(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewArticleBoostWindow(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{30 * time.Minute, 50},
		{time.Hour, 50},
		{time.Hour + time.Millisecond, 0},
		{2 * time.Hour, 0},
	}
	for _, tt := range tests {
		if got := cfg.NewBoost(tt.age); got != tt.want {
			t.Errorf("age %v: expected boost %v, got %v", tt.age, tt.want, got)
		}
	}
}

func TestDecay(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Decay(30 * 24 * time.Hour); !approx(got, 0.5) {
		t.Errorf("expected decay 0.5 at the half-life, got %v", got)
	}
	if got := cfg.Decay(0); got != 1 {
		t.Errorf("expected decay 1 at age zero, got %v", got)
	}
	for _, days := range []int{60, 70, 365, 10000} {
		got := cfg.Decay(time.Duration(days) * 24 * time.Hour)
		if got < 0.2 {
			t.Errorf("%d days: decay %v below floor", days, got)
		}
	}
	if got := cfg.Decay(365 * 24 * time.Hour); got != 0.2 {
		t.Errorf("expected floor 0.2 for a year-old article, got %v", got)
	}
}

func TestFinalScore(t *testing.T) {
	cfg := DefaultConfig()
	// (0.6*10 + 0.4*5 + 5) * 0.5 + 50
	if got := cfg.FinalScore(10, 5, 5, 0.5, 50); !approx(got, 56.5) {
		t.Errorf("expected 56.5, got %v", got)
	}
}

func TestCommentBoostIsFlat(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.addArticle("once", "bob", "", 48*time.Hour)
	s.addArticle("thrice", "bob", "", 48*time.Hour)
	s.addArticle("none", "bob", "", 48*time.Hour)
	s.comments = []database.Comment{
		{AuthorID: "alice", ArticleID: "once"},
		{AuthorID: "alice", ArticleID: "thrice"},
		{AuthorID: "alice", ArticleID: "thrice"},
		{AuthorID: "alice", ArticleID: "thrice"},
		{AuthorID: "bob", ArticleID: "none"},
	}

	res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := map[string]float64{}
	for _, d := range res.Details {
		got[d.ArticleID] = d.CommentScore
	}
	if got["once"] != 5 || got["thrice"] != 5 || got["none"] != 0 {
		t.Errorf("expected comment scores 5/5/0, got %v", got)
	}
}

func TestFilterVisible(t *testing.T) {
	friends := map[string]struct{}{"bob": {}}
	articles := []database.Article{
		{ID: "unset", AuthorID: "dave"},
		{ID: "public", AuthorID: "dave", Scope: database.ScopePublic},
		{ID: "friend", AuthorID: "bob", Scope: database.ScopeFriends},
		{ID: "stranger-friends", AuthorID: "dave", Scope: database.ScopeFriends},
		{ID: "own-private", AuthorID: "alice", Scope: database.ScopePrivate},
		{ID: "friend-private", AuthorID: "bob", Scope: database.ScopePrivate},
		{ID: "own-friends", AuthorID: "alice", Scope: database.ScopeFriends},
		{ID: "weird", AuthorID: "dave", Scope: "unlisted"},
	}

	visible, skipped := FilterVisible("alice", friends, articles)
	if skipped != 0 {
		t.Errorf("expected no skips, got %d", skipped)
	}
	var got []string
	for _, a := range visible {
		got = append(got, a.ID)
	}
	want := []string{"unset", "public", "friend", "own-private"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFilterVisibleSkipsMissingAuthor(t *testing.T) {
	counter := metrics.ArticlesSkipped.WithLabelValues("missing_author")
	before := testutil.ToFloat64(counter)

	visible, skipped := FilterVisible("alice", nil, []database.Article{
		{ID: "orphan", AuthorID: ""},
		{ID: "ok", AuthorID: "bob"},
	})
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
	if len(visible) != 1 || visible[0].ID != "ok" {
		t.Errorf("expected only 'ok' to be visible, got %+v", visible)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("expected skip metric to grow by 1, got %v", got)
	}
}

func TestRecommendNeverReturnsHiddenArticles(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice", Friends: []string{"bob"}})
	s.addArticle("mine", "alice", database.ScopePrivate, time.Hour*3)
	s.addArticle("bobs", "bob", database.ScopeFriends, time.Hour*3)
	s.addArticle("daves-private", "dave", database.ScopePrivate, time.Minute)
	s.addArticle("daves-friends", "dave", database.ScopeFriends, time.Minute)
	s.addArticle("orphan", "", "", time.Minute)
	// Heavy interest in hidden articles must not surface them.
	s.interact("alice", "daves-private", database.ActionLike)
	s.interact("bob", "daves-friends", database.ActionLike)

	res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("expected 2 visible articles, got %d", res.Total)
	}
	for _, id := range detailIDs(res.Details) {
		if id != "mine" && id != "bobs" {
			t.Errorf("hidden article %s was ranked", id)
		}
	}
}

func TestPaginationWindow(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("a%02d", i)
		s.addArticle(id, "bob", "", time.Duration(i+2)*time.Hour)
		// Give every article a distinct collaborative score.
		for j := 0; j < i%7+1; j++ {
			s.interact("alice", id, database.ActionView)
		}
	}
	r := newTestRecommender(t, s)
	ctx := context.Background()

	all, err := r.Recommend(ctx, "alice", 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Details) != 25 {
		t.Fatalf("expected 25 ranked articles, got %d", len(all.Details))
	}

	res, err := r.Recommend(ctx, "alice", 3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 25 || res.TotalPages != 3 || res.CurrentPage != 3 {
		t.Errorf("expected total 25, 3 pages, page 3; got %d, %d, %d", res.Total, res.TotalPages, res.CurrentPage)
	}
	want := detailIDs(all.Details[20:25])
	if got := detailIDs(res.Details); !reflect.DeepEqual(got, want) {
		t.Errorf("expected details %v, got %v", want, got)
	}
	if got := articleIDs(res.Articles); !reflect.DeepEqual(got, want) {
		t.Errorf("expected articles in rank order %v, got %v", want, got)
	}

	// Concatenated pages reproduce the full ranking.
	var pages []string
	for p := 1; p <= 3; p++ {
		res, err := r.Recommend(ctx, "alice", p, 10)
		if err != nil {
			t.Fatalf("page %d: %v", p, err)
		}
		pages = append(pages, detailIDs(res.Details)...)
	}
	if !reflect.DeepEqual(pages, detailIDs(all.Details)) {
		t.Errorf("expected pages to reproduce full ranking")
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice", Friends: []string{"bob"}})
	for i := 0; i < 12; i++ {
		s.addArticle(fmt.Sprintf("a%d", i), "bob", "", time.Duration(i)*time.Hour)
	}
	s.interact("bob", "a3", database.ActionLike)
	s.interact("alice", "a7", database.ActionView)
	r := newTestRecommender(t, s)

	first, err := r.Recommend(context.Background(), "alice", 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Recommend(context.Background(), "alice", 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical results at a fixed clock")
	}
}

func TestRecommendEmpty(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.errHydrate = errors.New("should not hydrate")

	res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || res.TotalPages != 0 {
		t.Errorf("expected empty totals, got %d/%d", res.Total, res.TotalPages)
	}
	if len(res.Articles) != 0 || len(res.Details) != 0 {
		t.Errorf("expected empty page, got %+v", res)
	}
}

func TestRecommendPagePastEnd(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.addArticle("a", "bob", "", time.Hour*5)

	res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 4, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || res.TotalPages != 1 || res.CurrentPage != 4 {
		t.Errorf("unexpected totals %+v", res)
	}
	if len(res.Articles) != 0 || len(res.Details) != 0 {
		t.Error("expected no articles past the last page")
	}
}

func TestRecommendHugePage(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.addArticle("a", "bob", "", time.Hour)
	s.addArticle("b", "bob", "", 2*time.Hour)
	r := newTestRecommender(t, s)

	for _, page := range []int{math.MaxInt, math.MaxInt/10 + 2} {
		res, err := r.Recommend(context.Background(), "alice", page, 10)
		if err != nil {
			t.Fatalf("page %d: unexpected error: %v", page, err)
		}
		if res.Total != 2 || res.TotalPages != 1 || len(res.Details) != 0 || len(res.Articles) != 0 {
			t.Errorf("page %d: expected empty page of 2 total, got %+v", page, res)
		}
	}
}

func TestPagingNormalization(t *testing.T) {
	r := newTestRecommender(t, newFakeStore())
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, -1, 1, 10},
		{2, 5, 2, 5},
		{1, 500, 1, 100},
	}
	for _, tt := range tests {
		page, limit := r.normalizePaging(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("normalizePaging(%d, %d) = %d, %d; want %d, %d",
				tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestRecommendDropsUnhydratedArticles(t *testing.T) {
	s := newFakeStore(&database.User{ID: "alice"})
	s.addArticle("a", "bob", "", 5*time.Minute)
	s.addArticle("b", "bob", "", 3*time.Hour)
	s.unhydratable["a"] = true

	res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := articleIDs(res.Articles); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected only b to be hydrated, got %v", got)
	}
	if len(res.Details) != 2 {
		t.Errorf("expected details for both ranked articles, got %d", len(res.Details))
	}
}

func TestRecommendUserNotFound(t *testing.T) {
	counter := metrics.RecommendRequests.WithLabelValues("not_found")
	before := testutil.ToFloat64(counter)

	_, err := newTestRecommender(t, newFakeStore()).Recommend(context.Background(), "ghost", 1, 10)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("expected not_found counter to grow by 1, got %v", got)
	}
}

func TestRecommendPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	tests := []struct {
		name   string
		inject func(*fakeStore)
	}{
		{"user", func(s *fakeStore) { s.errUser = boom }},
		{"articles", func(s *fakeStore) { s.errArticles = boom }},
		{"interactions", func(s *fakeStore) { s.errInteractions = boom }},
		{"tags", func(s *fakeStore) { s.errTags = boom }},
		{"comments", func(s *fakeStore) { s.errComments = boom }},
		{"hydrate", func(s *fakeStore) { s.errHydrate = boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore(&database.User{ID: "alice"})
			s.addArticle("a", "bob", "", time.Hour*2)
			s.interact("alice", "a", database.ActionView)
			tt.inject(s)

			res, err := newTestRecommender(t, s).Recommend(context.Background(), "alice", 1, 10)
			if !errors.Is(err, boom) {
				t.Fatalf("expected wrapped store error, got %v", err)
			}
			if res != nil {
				t.Error("expected no partial result")
			}
		})
	}
}

func TestNewRecommenderRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 2
	if _, err := NewRecommender(newFakeStore(), cfg, zerolog.Nop()); err == nil {
		t.Error("expected error for alpha outside [0,1]")
	}
}

func TestRecommendAgainstSQLite(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		if _, err := db.InsertUser(id, id, nil); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	db.AddFriendship("alice", "bob")
	db.Follow("alice", "carol")

	ms := func(age time.Duration) int64 { return testNow.Add(-age).UnixMilli() }
	insert := func(a database.Article) string {
		t.Helper()
		id, err := db.InsertArticle(a)
		if err != nil {
			t.Fatalf("insert article: %v", err)
		}
		return id
	}
	liked := insert(database.Article{ID: "liked", AuthorID: "carol", Title: "Liked", CreatedAt: ms(48 * time.Hour)})
	similar := insert(database.Article{ID: "similar", AuthorID: "dave", Title: "Similar", CreatedAt: ms(48 * time.Hour)})
	friendOnly := insert(database.Article{ID: "bobs", AuthorID: "bob", Scope: database.ScopeFriends, CreatedAt: ms(48 * time.Hour)})
	insert(database.Article{ID: "daves", AuthorID: "dave", Scope: database.ScopeFriends, CreatedAt: ms(time.Minute)})
	insert(database.Article{ID: "orphan", AuthorID: "ghost", CreatedAt: ms(time.Minute)})
	gone := insert(database.Article{ID: "gone", AuthorID: "bob", CreatedAt: ms(time.Minute)})
	db.SoftDeleteArticle(gone, testNow.UnixMilli())

	db.SetArticleTags(liked, []string{"go"})
	db.SetArticleTags(similar, []string{"go"})
	db.RecordInteraction("alice", liked, database.ActionLike)
	db.RecordInteraction("bob", friendOnly, database.ActionView)
	db.InsertComment("alice", similar, "nice")

	r := newTestRecommender(t, db)
	res, err := r.Recommend(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// liked: (0.6*1 + 0.4*4) * d, similar: (0.6*1 + 5) * d, bobs: (0.4*0.5) * d
	want := []string{"similar", "liked", "bobs"}
	if got := detailIDs(res.Details); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ranking %v, got %v", want, got)
	}
	if got := articleIDs(res.Articles); !reflect.DeepEqual(got, want) {
		t.Errorf("expected hydrated order %v, got %v", want, got)
	}
	if res.Articles[0].Author == nil || res.Articles[0].Author.ID != "dave" {
		t.Errorf("expected hydrated author dave, got %+v", res.Articles[0].Author)
	}
	if res.Details[1].CollaborativeScore != 4 {
		t.Errorf("expected self-like score 4, got %v", res.Details[1].CollaborativeScore)
	}

	if _, err := r.Recommend(context.Background(), "nobody", 1, 10); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
