package chunking

import (
	"regexp"
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
)

// Splitter produces bounded, boundary-respecting chunks from extracted text.
// Two strategies are combined: sentence-aware windows with character overlap
// for dense prose, and paragraph accumulation for structured documents.
type Splitter struct {
	ChunkSize int
	Overlap   int
	MinSize   int
}

func NewSplitter(chunkSize, overlap, minSize int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	if minSize < 0 {
		minSize = 0
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
		MinSize:   minSize,
	}
}

var paragraphSplit = regexp.MustCompile(`\n\n+`)

// Chunk splits a single text, picking the paragraph strategy for structured
// input (more than two paragraph breaks) and the semantic strategy otherwise.
// Small fragments are merged forward. Empty input yields an empty result.
func (s *Splitter) Chunk(text, sourceFile string) []domain.Chunk {
	chunks := s.chunkOne(text, sourceFile)
	return MergeSmallChunks(chunks, s.MinSize)
}

// SmartChunk chunks a list of text blocks with per-block strategy selection
// and renumbers chunk indexes globally across the batch.
func (s *Splitter) SmartChunk(texts []string, sourceFile string) []domain.Chunk {
	var all []domain.Chunk
	for _, text := range texts {
		for _, chunk := range s.chunkOne(text, sourceFile) {
			chunk.ChunkIndex = len(all)
			all = append(all, chunk)
		}
	}
	return MergeSmallChunks(all, s.MinSize)
}

func (s *Splitter) chunkOne(text, sourceFile string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if strings.Count(text, "\n\n") > 2 {
		return s.paragraphChunk(text, sourceFile)
	}
	return s.semanticChunk(text, sourceFile)
}

// semanticChunk advances a window of ChunkSize runes, extends each chunk to
// the nearest sentence end at or after the window boundary, and falls back to
// the nearest prior boundary when the extension would exceed 1.5x the target.
// With no boundary in reach it hard-cuts at the window. Adjacent chunks share
// Overlap runes of deliberate context.
func (s *Splitter) semanticChunk(text, sourceFile string) []domain.Chunk {
	runes := []rune(strings.TrimSpace(text))
	length := len(runes)
	if length == 0 {
		return nil
	}

	var chunks []domain.Chunk
	pos := 0
	index := 0

	for pos < length {
		target := pos + s.ChunkSize

		if target >= length {
			// Final tail: no boundary search.
			content := strings.TrimSpace(string(runes[pos:]))
			if content != "" {
				chunks = append(chunks, domain.Chunk{
					Content:    content,
					SourceFile: sourceFile,
					ChunkIndex: index,
					CharStart:  pos,
					CharEnd:    length,
				})
			}
			break
		}

		end := sentenceBoundaryForward(runes, target)
		if end-pos > s.ChunkSize*3/2 {
			end = sentenceBoundaryBackward(runes, target)
			if end <= pos {
				end = target
			}
		}

		content := strings.TrimSpace(string(runes[pos:end]))
		if content != "" {
			chunks = append(chunks, domain.Chunk{
				Content:    content,
				SourceFile: sourceFile,
				ChunkIndex: index,
				CharStart:  pos,
				CharEnd:    end,
			})
			index++
		}

		next := end - s.Overlap
		if next < 0 {
			next = 0
		}
		if next <= pos {
			// Overlap must never stall the walk.
			next = end
		}
		pos = next
	}

	return chunks
}

// paragraphChunk accumulates paragraphs into a buffer and flushes whenever
// the next paragraph would push the buffer past twice the target size.
func (s *Splitter) paragraphChunk(text, sourceFile string) []domain.Chunk {
	maxSize := s.ChunkSize * 2
	textLen := len([]rune(text))

	var paragraphs []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var chunks []domain.Chunk
	var buffer []string
	bufferLen := 0
	index := 0
	charPos := 0

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		start := charPos - bufferLen
		if start < 0 {
			start = 0
		}
		end := charPos
		if end > textLen {
			end = textLen
		}
		chunks = append(chunks, domain.Chunk{
			Content:    strings.Join(buffer, "\n\n"),
			SourceFile: sourceFile,
			ChunkIndex: index,
			CharStart:  start,
			CharEnd:    end,
		})
		index++
		buffer = nil
		bufferLen = 0
	}

	for _, para := range paragraphs {
		paraLen := len([]rune(para))
		if bufferLen+paraLen > maxSize && len(buffer) > 0 {
			flush()
		}
		buffer = append(buffer, para)
		// +2 accounts for the paragraph separator.
		bufferLen += paraLen + 2
		charPos += paraLen + 2
	}
	flush()

	return chunks
}

// MergeSmallChunks folds any chunk shorter than minSize into the chunk that
// follows it, in a single forward pass, so no stored chunk lacks context.
func MergeSmallChunks(chunks []domain.Chunk, minSize int) []domain.Chunk {
	if len(chunks) == 0 || minSize <= 0 {
		return chunks
	}

	var merged []domain.Chunk
	var buffer *domain.Chunk

	for i := range chunks {
		chunk := chunks[i]
		switch {
		case buffer == nil:
			buffer = &chunk
		case len([]rune(buffer.Content)) < minSize:
			buffer.Content = buffer.Content + "\n\n" + chunk.Content
			buffer.CharEnd = chunk.CharEnd
		default:
			merged = append(merged, *buffer)
			buffer = &chunk
		}
	}
	if buffer != nil {
		merged = append(merged, *buffer)
	}

	for i := range merged {
		merged[i].ChunkIndex = i
	}
	return merged
}

// sentenceBoundaryForward returns the position just past the first sentence
// end (., ! or ? followed by whitespace) at or after target, or the text end.
func sentenceBoundaryForward(runes []rune, target int) int {
	for i := target; i < len(runes)-1; i++ {
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 2
		}
	}
	return len(runes)
}

// sentenceBoundaryBackward returns the position just past the last sentence
// end strictly before target, or 0 when none exists.
func sentenceBoundaryBackward(runes []rune, target int) int {
	limit := target
	if limit > len(runes) {
		limit = len(runes)
	}
	for i := limit - 2; i >= 0; i-- {
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 2
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
