package usecase

import (
	"context"
	"sync"
	"time"

	"PriceTracker/internal/domain"
)

type fakeSource struct {
	mu        sync.Mutex
	headlines []domain.Headline
	listErr   error
	bodies    map[string]domain.ArticleBody
	failures  map[string]error
	specs     []domain.PageSpec
	terms     []string
	parsed    []string
}

func (f *fakeSource) Headlines(_ context.Context, term string, pages domain.PageSpec) ([]domain.Headline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, pages)
	f.terms = append(f.terms, term)
	return append([]domain.Headline(nil), f.headlines...), f.listErr
}

func (f *fakeSource) Article(_ context.Context, url string) (domain.ArticleBody, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parsed = append(f.parsed, url)
	if err, ok := f.failures[url]; ok {
		return domain.ArticleBody{}, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return domain.ArticleBody{}, &domain.ParseError{URL: url, Element: "h1.article-content__title"}
	}
	return body, nil
}

func (f *fakeSource) parseCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.parsed...)
}

type fakeModel struct {
	mu         sync.Mutex
	labels     map[string]domain.Relevance
	faults     map[string]error
	summaries  map[string]domain.Summary
	summaryErr error
	keywords   string
	classified []string
	summarized []string
}

func (f *fakeModel) Classify(_ context.Context, title string) (domain.Relevance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classified = append(f.classified, title)
	if err, ok := f.faults[title]; ok {
		return "", err
	}
	if label, ok := f.labels[title]; ok {
		return label, nil
	}
	return domain.RelevanceLow, nil
}

func (f *fakeModel) Summarize(_ context.Context, body string) (domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarized = append(f.summarized, body)
	if s, ok := f.summaries[body]; ok {
		return s, nil
	}
	if f.summaryErr != nil {
		return domain.Summary{}, f.summaryErr
	}
	return domain.Summary{Impact: "價格上漲", Reason: "供給減少"}, nil
}

func (f *fakeModel) ExtractKeywords(_ context.Context, prompt string) (string, error) {
	if f.keywords == "" {
		return prompt, nil
	}
	return f.keywords, nil
}

type memArticles struct {
	mu     sync.Mutex
	byURL  map[string]domain.Article
	nextID int64
	err    error
}

func newMemArticles() *memArticles {
	return &memArticles{byURL: map[string]domain.Article{}}
}

func (m *memArticles) Insert(_ context.Context, a domain.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.byURL[a.URL]; ok {
		return false, nil
	}
	m.nextID++
	a.ID = m.nextID
	m.byURL[a.URL] = a
	return true, nil
}

func (m *memArticles) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byURL), nil
}

func (m *memArticles) Get(_ context.Context, id int64) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byURL {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, domain.ErrArticleNotFound
}

func (m *memArticles) ListWithUpvotes(context.Context, *int64) ([]domain.ArticleView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var views []domain.ArticleView
	for _, a := range m.byURL {
		views = append(views, domain.ArticleView{Article: a})
	}
	return views, nil
}

type memUpvotes struct {
	mu       sync.Mutex
	articles *memArticles
	votes    map[[2]int64]bool
}

func (m *memUpvotes) Toggle(ctx context.Context, articleID, userID int64) (domain.UpvoteAction, error) {
	if _, err := m.articles.Get(ctx, articleID); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{articleID, userID}
	if m.votes[key] {
		delete(m.votes, key)
		return domain.UpvoteRemoved, nil
	}
	m.votes[key] = true
	return domain.UpvoteAdded, nil
}

func (m *memUpvotes) Details(ctx context.Context, articleID int64, userID *int64) (domain.UpvoteDetails, error) {
	if _, err := m.articles.Get(ctx, articleID); err != nil {
		return domain.UpvoteDetails{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var d domain.UpvoteDetails
	for key := range m.votes {
		if key[0] == articleID {
			d.Count++
			if userID != nil && key[1] == *userID {
				d.VotedByUser = true
			}
		}
	}
	return d, nil
}

type memCache struct {
	mu     sync.Mutex
	labels map[string]domain.Relevance
}

func (m *memCache) Get(_ context.Context, url string) (domain.Relevance, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[url]
	return l, ok, nil
}

func (m *memCache) Put(_ context.Context, url string, label domain.Relevance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[url] = label
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, digest)
	return nil
}

type memUsers struct {
	mu     sync.Mutex
	users  map[string]domain.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]domain.User{}}
}

func (m *memUsers) Create(_ context.Context, username, hashed string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return domain.User{}, domain.ErrUserExists
	}
	m.nextID++
	u := domain.User{ID: m.nextID, Username: username, HashedPassword: hashed}
	m.users[username] = u
	return u, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type fakeDriver struct {
	job     func(time.Time)
	stopped bool
}

func (f *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	f.job = job
	return nil
}

func (f *fakeDriver) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func body(url, title, at string, paragraphs ...string) domain.ArticleBody {
	return domain.ArticleBody{URL: url, Title: title, Time: at, Paragraphs: paragraphs}
}
