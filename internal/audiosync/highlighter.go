// internal/audiosync/highlighter.go
package audiosync

import (
	"strings"
	"unicode"

	"github.com/dlmmedia/powerwrite/internal/pagination"
)

// HighlightClass 词的高亮分类
type HighlightClass string

const (
	HighlightCurrent  HighlightClass = "current"  // 正在朗读
	HighlightPrevious HighlightClass = "previous" // 前一个词
	HighlightNext     HighlightClass = "next"     // 下一个词
	HighlightNear     HighlightClass = "near"     // 距离 <= 3
	HighlightNone     HighlightClass = "none"
)

// 近邻高亮的最大词距
const nearDistance = 3

// WordSpan 渲染用的词跨度
// 不变式: 同一文本块无论高亮状态如何，产出的跨度数量保持不变，
// 渲染间只有样式属性变化，不改结构（避免布局抖动）
type WordSpan struct {
	Text      string         `json:"text"`
	IsWord    bool           `json:"is_word"`    // false 表示空白分隔符
	WordIndex int            `json:"word_index"` // 页内词序号，分隔符为 -1
	Class     HighlightClass `json:"class"`
	Intensity float64        `json:"intensity"` // 高亮强度 0.0-1.0
}

// ChunkWordRange 文本块覆盖的页内词序号区间 [Start, End)
type ChunkWordRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PageHighlight 当前页的高亮结果
type PageHighlight struct {
	ChunkRanges []ChunkWordRange `json:"chunk_ranges"`
	ChunkSpans  [][]WordSpan     `json:"chunk_spans"`
	ActiveChunk int              `json:"active_chunk"` // 包含当前词的块序号，无则 -1
}

// PageWordRanges 计算页上每个块的词序号区间
// 块的起始词序号 = 页基准词偏移 + 同页前序块的词数
func PageWordRanges(chunks []pagination.TextChunk, baseWordOffset int) []ChunkWordRange {
	ranges := make([]ChunkWordRange, 0, len(chunks))
	offset := baseWordOffset

	for _, chunk := range chunks {
		count := len(strings.Fields(chunk.Text))
		ranges = append(ranges, ChunkWordRange{Start: offset, End: offset + count})
		offset += count
	}

	return ranges
}

// ActiveChunkIndex 定位包含 currentWordIndex 的块，无则返回 -1
func ActiveChunkIndex(ranges []ChunkWordRange, currentWordIndex int) int {
	if currentWordIndex < 0 {
		return -1
	}

	for i, r := range ranges {
		if currentWordIndex >= r.Start && currentWordIndex < r.End {
			return i
		}
	}
	return -1
}

// HighlightPage 为整页计算高亮
//
// baseWordOffset 为页首块 StartCharIndex 对应的词偏移（见 WordIndexAt）；
// currentWordIndex < 0 或不落在任何块内时不高亮任何词，
// 但所有块仍然产出完整的跨度序列（结构稳定）。
func HighlightPage(chunks []pagination.TextChunk, baseWordOffset, currentWordIndex int) PageHighlight {
	ranges := PageWordRanges(chunks, baseWordOffset)

	spans := make([][]WordSpan, 0, len(chunks))
	for i, chunk := range chunks {
		spans = append(spans, HighlightChunk(chunk.Text, ranges[i].Start, currentWordIndex))
	}

	return PageHighlight{
		ChunkRanges: ranges,
		ChunkSpans:  spans,
		ActiveChunk: ActiveChunkIndex(ranges, currentWordIndex),
	}
}

// HighlightChunk 将一个文本块切成跨度序列并逐词分类
// 按空白切分但保留分隔符；每个词无论是否高亮都产出一个跨度
func HighlightChunk(text string, chunkWordOffset, currentWordIndex int) []WordSpan {
	spans := []WordSpan{}
	wordIndex := chunkWordOffset

	for _, token := range splitPreservingSeparators(text) {
		if token.isSpace {
			spans = append(spans, WordSpan{
				Text:      token.text,
				IsWord:    false,
				WordIndex: -1,
				Class:     HighlightNone,
			})
			continue
		}

		class, intensity := classifyWord(wordIndex, currentWordIndex)
		spans = append(spans, WordSpan{
			Text:      token.text,
			IsWord:    true,
			WordIndex: wordIndex,
			Class:     class,
			Intensity: intensity,
		})
		wordIndex++
	}

	return spans
}

// classifyWord 按词距分级: 当前全亮，邻近按距离衰减
func classifyWord(wordIndex, currentWordIndex int) (HighlightClass, float64) {
	if currentWordIndex < 0 {
		return HighlightNone, 0
	}

	distance := wordIndex - currentWordIndex
	switch {
	case distance == 0:
		return HighlightCurrent, 1.0
	case distance == -1:
		return HighlightPrevious, 0.55
	case distance == 1:
		return HighlightNext, 0.55
	case distance >= -nearDistance && distance <= nearDistance:
		return HighlightNear, 0.3
	default:
		return HighlightNone, 0
	}
}

// ShouldScroll 判断是否需要将当前词滚动到可视区域
// 仅在播放中、且词跨度落在视口上下各100px安全带之外时滚动
func ShouldScroll(playing bool, spanTop, spanBottom, viewportTop, viewportHeight float64) bool {
	if !playing {
		return false
	}

	const safeBand = 100
	return spanTop < viewportTop+safeBand || spanBottom > viewportTop+viewportHeight-safeBand
}

// token 切分结果：词或空白段
type token struct {
	text    string
	isSpace bool
}

// splitPreservingSeparators 按空白切分并保留分隔符本身
func splitPreservingSeparators(text string) []token {
	var tokens []token
	var builder strings.Builder
	building := false // 当前积累的是否为空白段

	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, token{text: builder.String(), isSpace: building})
			builder.Reset()
		}
	}

	for _, r := range text {
		isSpace := unicode.IsSpace(r)
		if builder.Len() > 0 && isSpace != building {
			flush()
		}
		building = isSpace
		builder.WriteRune(r)
	}
	flush()

	return tokens
}
