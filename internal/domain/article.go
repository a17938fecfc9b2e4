package domain

import "strings"

// Headline is a listing entry returned by a news source search, before the article is parsed.
type Headline struct {
	Title string
	URL   string
	Time  string
}

// ArticleBody holds the structured fields extracted from an article page.
type ArticleBody struct {
	URL        string
	Title      string
	Time       string
	Paragraphs []string
}

// BodySeparator joins paragraphs into the persisted body.
const BodySeparator = " "

// Text concatenates the paragraphs into a single body string.
func (b ArticleBody) Text() string {
	return strings.Join(b.Paragraphs, BodySeparator)
}

// Summary is the two-field structured summary produced by the language model.
type Summary struct {
	Impact string `json:"impact"`
	Reason string `json:"reason"`
}

// Article is a classified, parsed and summarized news item. It is written once and never updated.
type Article struct {
	ID            int64
	URL           string
	Title         string
	PublishedTime string
	Body          string
	SummaryImpact string
	SummaryReason string
}

// NewArticle assembles an Article from a parsed body and its summary.
func NewArticle(body ArticleBody, summary Summary) Article {
	return Article{
		URL:           body.URL,
		Title:         body.Title,
		PublishedTime: body.Time,
		Body:          body.Text(),
		SummaryImpact: summary.Impact,
		SummaryReason: summary.Reason,
	}
}

// ArticleView is an Article annotated with upvote information for a reader.
type ArticleView struct {
	Article
	Upvotes   int
	IsUpvoted bool
}

// SearchResult is an article fetched by the ad-hoc search flow. IDs are request scoped.
type SearchResult struct {
	ID    int64
	URL   string
	Title string
	Time  string
	Body  string
}

// Relevance is the classifier label for a headline.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// ParseRelevance normalises a model answer into one of the three labels.
func ParseRelevance(raw string) (Relevance, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, "\"'`.。!！ \t\r\n")
	switch Relevance(label) {
	case RelevanceHigh, RelevanceMedium, RelevanceLow:
		return Relevance(label), true
	default:
		return "", false
	}
}

// PageSpec selects listing pages: a single page or an inclusive range.
type PageSpec struct {
	From int
	To   int
}

// SinglePage requests exactly one listing page.
func SinglePage(n int) PageSpec {
	return PageSpec{From: n, To: n}
}

// PageRange requests pages lo..hi inclusive.
func PageRange(lo, hi int) PageSpec {
	return PageSpec{From: lo, To: hi}
}

// Pages expands the selection into ascending page numbers.
func (p PageSpec) Pages() []int {
	if p.From <= 0 || p.To < p.From {
		return nil
	}
	pages := make([]int, 0, p.To-p.From+1)
	for n := p.From; n <= p.To; n++ {
		pages = append(pages, n)
	}
	return pages
}
