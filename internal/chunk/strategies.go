package chunk

import (
	"fmt"
	"slices"

	"github.com/alan-mat/dip/internal/registry"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	StrategyFixedSize     = "fixed_size"
	StrategySemantic      = "semantic"
	StrategySlidingWindow = "sliding_window"
	StrategyHierarchical  = "hierarchical"
)

func init() {
	strategies.RegisterMany(
		registry.Entry[string, Factory]{Key: StrategyFixedSize, Value: newFixedSize},
		registry.Entry[string, Factory]{Key: StrategySemantic, Value: newSemantic},
		registry.Entry[string, Factory]{Key: StrategySlidingWindow, Value: newSlidingWindow},
		registry.Entry[string, Factory]{Key: StrategyHierarchical, Value: newHierarchical},
	)
}

// fixedSizeSplitter cuts the text into token windows with no overlap.
type fixedSizeSplitter struct {
	chunkSize int
}

func newFixedSize(opts Options) (Splitter, error) {
	size := intOption(opts, "chunk_size", 512)
	if size <= 0 {
		return nil, InvalidOptionsError{Strategy: StrategyFixedSize, Reason: "chunk_size must be positive"}
	}
	return &fixedSizeSplitter{chunkSize: size}, nil
}

func (s *fixedSizeSplitter) Name() string { return StrategyFixedSize }

func (s *fixedSizeSplitter) Split(text string) ([]string, error) {
	sp := textsplitter.NewTokenSplitter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(0),
	)
	return sp.SplitText(text)
}

var semanticSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// semanticSplitter cuts along natural text boundaries, bounded from
// above by max_chunk_size characters. min_chunk_size is accepted for
// compatibility but recursive splitting imposes no lower bound.
type semanticSplitter struct {
	maxChunkSize int
}

func newSemantic(opts Options) (Splitter, error) {
	maxSize := intOption(opts, "max_chunk_size", 1000)
	if maxSize <= 0 {
		return nil, InvalidOptionsError{Strategy: StrategySemantic, Reason: "max_chunk_size must be positive"}
	}
	return &semanticSplitter{maxChunkSize: maxSize}, nil
}

func (s *semanticSplitter) Name() string { return StrategySemantic }

func (s *semanticSplitter) Split(text string) ([]string, error) {
	sp := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.maxChunkSize),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators(semanticSeparators),
	)
	return sp.SplitText(text)
}

// slidingWindowSplitter cuts token windows that overlap, preserving
// context across chunk boundaries.
type slidingWindowSplitter struct {
	chunkSize int
	overlap   int
}

func newSlidingWindow(opts Options) (Splitter, error) {
	size := intOption(opts, "chunk_size", 512)
	overlap := intOption(opts, "overlap", 128)

	if size <= 0 {
		return nil, InvalidOptionsError{Strategy: StrategySlidingWindow, Reason: "chunk_size must be positive"}
	}
	if overlap < 0 {
		return nil, InvalidOptionsError{Strategy: StrategySlidingWindow, Reason: "overlap must not be negative"}
	}
	if overlap >= size {
		return nil, InvalidOptionsError{Strategy: StrategySlidingWindow, Reason: "overlap must be smaller than chunk_size"}
	}

	return &slidingWindowSplitter{chunkSize: size, overlap: overlap}, nil
}

func (s *slidingWindowSplitter) Name() string { return StrategySlidingWindow }

func (s *slidingWindowSplitter) Split(text string) ([]string, error) {
	sp := textsplitter.NewTokenSplitter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.overlap),
	)
	return sp.SplitText(text)
}

// Per-level splitting parameters of the hierarchical strategy.
var hierarchicalLevels = []struct {
	name      string
	label     string
	chunkSize int
	overlap   int
	seps      []string
}{
	{"section", "SECTION", 2000, 200, []string{"\n## ", "\n### ", "\n#### ", "\n\n", "\n", ". "}},
	{"paragraph", "PARAGRAPH", 500, 50, []string{"\n\n", "\n", ". "}},
	{"sentence", "SENTENCE", 100, 0, []string{". ", "! ", "? ", "; "}},
}

// documentHeadSize bounds the document level summary chunk.
const documentHeadSize = 1000

// hierarchicalSplitter produces labeled chunks at multiple
// granularities, from a whole document summary chunk down to
// sentences. Unknown level names are ignored.
type hierarchicalSplitter struct {
	levels []string
}

func newHierarchical(opts Options) (Splitter, error) {
	levels := stringListOption(opts, "levels", []string{"document", "paragraph"})
	if len(levels) == 0 {
		return nil, InvalidOptionsError{Strategy: StrategyHierarchical, Reason: "levels must not be empty"}
	}
	return &hierarchicalSplitter{levels: levels}, nil
}

func (s *hierarchicalSplitter) Name() string { return StrategyHierarchical }

func (s *hierarchicalSplitter) Split(text string) ([]string, error) {
	var chunks []string

	if slices.Contains(s.levels, "document") {
		head := []rune(text)
		if len(head) > documentHeadSize {
			head = head[:documentHeadSize]
		}
		chunks = append(chunks, fmt.Sprintf("[DOCUMENT] %s...", string(head)))
	}

	for _, level := range hierarchicalLevels {
		if !slices.Contains(s.levels, level.name) {
			continue
		}

		sp := textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(level.chunkSize),
			textsplitter.WithChunkOverlap(level.overlap),
			textsplitter.WithSeparators(level.seps),
		)
		parts, err := sp.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s level: %w", level.name, err)
		}

		for i, part := range parts {
			chunks = append(chunks, fmt.Sprintf("[%s %d] %s", level.label, i+1, part))
		}
	}

	return chunks, nil
}
