package caption

import "strings"

// DefaultChunkSize is how many words are displayed together in one caption.
const DefaultChunkSize = 8

// Word is a single transcribed word with its timestamps in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

// Caption is a timed group of words meant to be displayed together.
type Caption struct {
	Text  string  `json:"text"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
	Words []Word  `json:"words"`
}

// Chunk groups an ordered word stream into captions of up to size words.
// A caption spans from its first word's start to its last word's end; only
// the trailing caption may hold fewer than size words. Captions come out
// time-ordered and non-overlapping because the input stream is consumed
// sequentially.
func Chunk(words []Word, size int) []Caption {
	if size <= 0 {
		size = DefaultChunkSize
	}

	captions := make([]Caption, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		group := words[start:end]

		texts := make([]string, 0, len(group))
		for _, w := range group {
			texts = append(texts, w.Text)
		}

		captions = append(captions, Caption{
			Text:  strings.Join(texts, " "),
			Start: group[0].Start,
			End:   group[len(group)-1].End,
			Words: append([]Word(nil), group...),
		})
	}

	return captions
}
