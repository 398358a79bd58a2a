package domain

// Namespace identifies one isolated vector space. Isolation is enforced by
// collection naming in the store, never by post-filtering shared results.
type Namespace struct {
	UserID string
	DeckID string
}

// RetrievedDocument is one vector-store hit. Distance is the store's raw
// metric; similarity conversion happens in the retriever.
type RetrievedDocument struct {
	Content  string
	Distance float64
	Metadata map[string]string
}

// RetrievalResult holds merged, deduplicated multi-query retrieval output.
// Documents and Scores are parallel; order is primary-query rank first, then
// per-subtopic rank in expansion order, first-seen wins on duplicates.
type RetrievalResult struct {
	Documents      []string  `json:"documents"`
	Scores         []float64 `json:"scores"`
	TotalFound     int       `json:"total_found"`
	TopicsSearched []string  `json:"topics_searched"`
}

// DomainCheck is the domain guard's verdict on a single query.
type DomainCheck struct {
	InScope     bool    `json:"in_scope"`
	Similarity  float64 `json:"similarity"`
	Explanation string  `json:"explanation"`
}

// CoverageReport says whether retrieved material suffices to answer locally.
// Partial marks the band where the answer is usable but thin.
type CoverageReport struct {
	Sufficient bool    `json:"sufficient"`
	Partial    bool    `json:"partial"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ResponseStrategy selects how a query is answered.
type ResponseStrategy string

const (
	// StrategyLocal answers from retrieved deck content only.
	StrategyLocal ResponseStrategy = "local"
	// StrategyBlended pairs a local partial answer with a labeled external
	// supplement.
	StrategyBlended ResponseStrategy = "blended"
	// StrategyExternal answers out-of-scope queries from external sources
	// only, explicitly labeled.
	StrategyExternal ResponseStrategy = "external"
)

// Answer is the user-facing result of one query.
type Answer struct {
	Intent             string           `json:"intent"`
	Strategy           ResponseStrategy `json:"strategy"`
	InScope            bool             `json:"in_scope"`
	Covered            bool             `json:"coverage"`
	CoverageConfidence float64          `json:"coverage_confidence"`
	Text               string           `json:"answer"`
	Warning            string           `json:"warning,omitempty"`
	InternetEnhanced   bool             `json:"internet_enhanced"`
}

// SearchResult is one whitelisted external search hit.
type SearchResult struct {
	Title  string
	Body   string
	URL    string
	Domain string
}

// ExternalAnswer is a summarized, labeled external supplement. It is never
// stored or embedded.
type ExternalAnswer struct {
	Content  string
	Sources  []string
	Reliable bool
}

// IngestionResult reports one file's trip through the ingestion pipeline.
type IngestionResult struct {
	Filename      string `json:"filename"`
	Success       bool   `json:"success"`
	ChunksCreated int    `json:"chunks_created"`
	ChunksDropped int    `json:"chunks_filtered"`
	Error         string `json:"error,omitempty"`
}

// PipelineResult aggregates a whole ingestion batch for one deck.
type PipelineResult struct {
	DeckID         string            `json:"deck_id"`
	FilesProcessed int               `json:"files_processed"`
	TotalChunks    int               `json:"total_chunks"`
	TotalFiltered  int               `json:"total_filtered"`
	SyllabusTopics []string          `json:"syllabus_topics"`
	Results        []IngestionResult `json:"results"`
}
