package domain

// Chunk is a bounded text segment produced by the chunker. It is the unit of
// syllabus mapping and embedding; only its content and metadata survive into
// the vector store.
type Chunk struct {
	Content    string `json:"content"`
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
}

// MappedChunk is a chunk that survived the syllabus filter. Invariant: Topics
// is non-empty and Relevance is at or above the filter's minimum; anything
// below that is dropped before this type is constructed.
type MappedChunk struct {
	Content    string   `json:"content"`
	Topics     []string `json:"topics"`
	Relevance  float64  `json:"relevance"`
	SourceFile string   `json:"source_file"`
}

// TopicCoverage summarizes how mapped chunks distribute over syllabus topics.
type TopicCoverage struct {
	Covered       []string       `json:"covered"`
	Uncovered     []string       `json:"uncovered"`
	CoverageRatio float64        `json:"coverage_ratio"`
	PerTopic      map[string]int `json:"per_topic_counts"`
}
