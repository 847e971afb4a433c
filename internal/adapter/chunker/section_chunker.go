package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// Heading patterns common in legal documents, matched at line starts:
// "Section 3", "ARTICLE IV", "4. DEFINITIONS" and the like.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:SECTION|Section|Article|ARTICLE)\s+[IVX\d]+[.:\s]`),
	regexp.MustCompile(`^[IVX\d]+\.\s+[A-Z][A-Z\s]{3,}`),
	regexp.MustCompile(`^\d+\.\s+[A-Z][A-Z\s]{3,}`),
}

var (
	pageNumberLine = regexp.MustCompile(`^\s*\d{1,4}\s*$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// SectionChunker splits a document into overlapping, section-aware chunks.
// Sections are detected from legal heading patterns; sections larger than the
// target size are split at sentence boundaries with a trailing-sentence
// overlap seeding each following chunk.
//
// CharStart/CharEnd are byte offsets into the normalized document text (the
// output of Normalize), not into the original file: normalization drops
// page-number lines and collapses whitespace runs, so offsets are only
// reproducible against the normalized string.
type SectionChunker struct {
	targetSize   int
	overlap      int
	minChunkSize int
	seg          port.SentenceSegmenter
}

// NewSectionChunker validates the size envelope and returns a chunker.
// A nil segmenter selects the default SentenceSplitter.
func NewSectionChunker(targetSize, overlap, minChunkSize int, seg port.SentenceSegmenter) (*SectionChunker, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", targetSize)
	}
	if overlap < 0 || overlap >= targetSize {
		return nil, fmt.Errorf("overlap must be in [0, target size), got %d", overlap)
	}
	if minChunkSize < 0 {
		return nil, fmt.Errorf("min chunk size must be non-negative, got %d", minChunkSize)
	}
	if seg == nil {
		seg = NewSentenceSplitter()
	}
	return &SectionChunker{
		targetSize:   targetSize,
		overlap:      overlap,
		minChunkSize: minChunkSize,
		seg:          seg,
	}, nil
}

// Normalize returns the cleaned document text: page-number-only lines are
// dropped and every whitespace run collapses to a single space. Chunk offsets
// refer to this string.
func Normalize(text string) string {
	return strings.Join(normalizeLines(text), " ")
}

// normalizeLines cleans each input line and drops the ones that carry no
// content. Heading detection needs line structure, so this runs before the
// lines are flattened into the normalized string.
func normalizeLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if pageNumberLine.MatchString(raw) {
			continue
		}
		line := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// section is a contiguous run of body text under one heading. start is the
// byte offset of the body within the normalized document.
type section struct {
	heading string
	body    string
	start   int
}

// Chunk splits the document text into ordered chunk drafts with zero-based
// contiguous ords. Given identical input and the same segmenter the output
// is identical.
func (c *SectionChunker) Chunk(text string) ([]domain.ChunkDraft, error) {
	lines := normalizeLines(text)
	if len(lines) == 0 {
		return nil, nil
	}

	var drafts []domain.ChunkDraft
	for _, sec := range splitSections(lines) {
		drafts = c.chunkSection(sec, drafts)
	}
	for i := range drafts {
		drafts[i].Ord = i
	}
	return drafts, nil
}

func isHeading(line string) bool {
	for _, p := range headingPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// splitSections partitions normalized lines into sections. Text before the
// first heading forms an unheaded leading section; a heading directly
// followed by another heading is dropped. When no line matches a heading
// pattern the whole text becomes one unheaded section.
func splitSections(lines []string) []section {
	var sections []section
	heading := ""
	var body []string
	bodyStart := 0

	cursor := 0 // byte offset of the current line in the normalized string
	for _, line := range lines {
		if isHeading(line) {
			if len(body) > 0 {
				sections = append(sections, section{
					heading: heading,
					body:    strings.Join(body, " "),
					start:   bodyStart,
				})
			}
			heading = line
			body = nil
		} else {
			if len(body) == 0 {
				bodyStart = cursor
			}
			body = append(body, line)
		}
		cursor += len(line) + 1
	}
	if len(body) > 0 {
		sections = append(sections, section{
			heading: heading,
			body:    strings.Join(body, " "),
			start:   bodyStart,
		})
	}
	return sections
}

// chunkSection appends the section's chunks to drafts. Small sections become
// a single chunk regardless of minChunkSize; oversized ones are split at
// sentence boundaries.
func (c *SectionChunker) chunkSection(sec section, drafts []domain.ChunkDraft) []domain.ChunkDraft {
	if len(sec.body) <= c.targetSize {
		return append(drafts, domain.ChunkDraft{
			Heading:   sec.heading,
			Text:      sec.body,
			CharStart: sec.start,
			CharEnd:   sec.start + len(sec.body),
		})
	}

	sentences := c.seg.Segment(sec.body)
	cur := ""
	curStart := sec.start
	emitted := 0

	emit := func() {
		drafts = append(drafts, domain.ChunkDraft{
			Heading:   sec.heading,
			Text:      cur,
			CharStart: curStart,
			CharEnd:   curStart + len(cur),
		})
		emitted++
	}

	for _, sentence := range sentences {
		switch {
		case cur == "":
			cur = sentence
		case len(cur)+1+len(sentence) > c.targetSize:
			emit()
			// Seed the next chunk with the tail of the one just emitted.
			// The tail is a suffix of cur, so the new start offset is the
			// old end minus the tail length.
			tail := c.overlapTail(cur)
			if tail == "" {
				curStart += len(cur) + 1
				cur = sentence
			} else {
				curStart += len(cur) - len(tail)
				cur = tail + " " + sentence
			}
		default:
			cur += " " + sentence
		}
	}

	// A trailing fragment below the minimum is dropped, but only when the
	// section already produced a chunk; a section's sole chunk always stays.
	if cur != "" && (emitted == 0 || len(cur) >= c.minChunkSize) {
		emit()
	}
	return drafts
}

// overlapTail picks trailing whole sentences of text whose combined length
// stays within the overlap budget; when not even one sentence fits it falls
// back to the last overlap bytes verbatim. The result is always a suffix of
// text (possibly empty).
func (c *SectionChunker) overlapTail(text string) string {
	if c.overlap == 0 {
		return ""
	}
	if len(text) <= c.overlap {
		return text
	}

	sentences := c.seg.Segment(text)
	tail := ""
	for i := len(sentences) - 1; i >= 0; i-- {
		joined := sentences[i]
		if tail != "" {
			joined = sentences[i] + " " + tail
		}
		if len(joined) > c.overlap {
			break
		}
		tail = joined
	}
	if tail == "" {
		tail = text[len(text)-c.overlap:]
	}
	return tail
}
