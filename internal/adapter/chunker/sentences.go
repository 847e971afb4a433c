package chunker

// SentenceSplitter is the default sentence segmenter. A sentence ends at a
// run of terminal punctuation (".", "!", "?") followed by a space; trailing
// text without terminal punctuation forms the final sentence.
//
// The splitter partitions its input exactly: joining the returned sentences
// with single spaces reproduces the input string. The chunker relies on this
// for its offset bookkeeping, so alternative segmenters must preserve it.
type SentenceSplitter struct{}

func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{}
}

func (s *SentenceSplitter) Segment(text string) []string {
	var sentences []string
	start := 0
	i := 0
	for i < len(text) {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			i++
			continue
		}
		j := i + 1
		for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
			j++
		}
		if j < len(text) && text[j] == ' ' {
			sentences = append(sentences, text[start:j])
			start = j + 1
			i = j + 1
			continue
		}
		i = j
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}
