// internal/audiosync/highlighter_test.go
package audiosync

import (
	"strings"
	"testing"

	"github.com/dlmmedia/powerwrite/internal/pagination"
)

// TestHighlightChunkSpanStability 测试不同高亮状态下跨度结构不变
func TestHighlightChunkSpanStability(t *testing.T) {
	text := "The reader highlights words\nas the narration plays along."

	renders := [][]WordSpan{
		HighlightChunk(text, 0, -1),
		HighlightChunk(text, 0, 0),
		HighlightChunk(text, 0, 4),
		HighlightChunk(text, 0, 999),
	}

	base := renders[0]
	for i, render := range renders[1:] {
		if len(render) != len(base) {
			t.Fatalf("渲染%d跨度数量变化: %d != %d", i+1, len(render), len(base))
		}
		for j := range base {
			if render[j].Text != base[j].Text {
				t.Errorf("渲染%d跨度%d文本变化: %q != %q", i+1, j, render[j].Text, base[j].Text)
			}
			if render[j].IsWord != base[j].IsWord {
				t.Errorf("渲染%d跨度%d词性变化", i+1, j)
			}
			if render[j].WordIndex != base[j].WordIndex {
				t.Errorf("渲染%d跨度%d词序号变化: %d != %d",
					i+1, j, render[j].WordIndex, base[j].WordIndex)
			}
		}
	}
}

// TestHighlightChunkReconstruction 测试跨度拼接还原原文
func TestHighlightChunkReconstruction(t *testing.T) {
	text := "  spaces\tand words  mixed \n together "
	spans := HighlightChunk(text, 0, 1)

	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(span.Text)
	}

	if sb.String() != text {
		t.Errorf("跨度拼接应该还原原文: %q != %q", sb.String(), text)
	}
}

// TestHighlightChunkClasses 测试词距分级
func TestHighlightChunkClasses(t *testing.T) {
	text := "w0 w1 w2 w3 w4 w5 w6 w7"
	spans := HighlightChunk(text, 0, 4)

	wantClasses := map[int]struct {
		class     HighlightClass
		intensity float64
	}{
		0: {HighlightNone, 0},      // 距离-4
		1: {HighlightNear, 0.3},    // 距离-3
		2: {HighlightNear, 0.3},    // 距离-2
		3: {HighlightPrevious, 0.55},
		4: {HighlightCurrent, 1.0},
		5: {HighlightNext, 0.55},
		6: {HighlightNear, 0.3},
		7: {HighlightNear, 0.3},
	}

	for _, span := range spans {
		if !span.IsWord {
			if span.WordIndex != -1 {
				t.Errorf("分隔符的词序号应该为-1，实际: %d", span.WordIndex)
			}
			if span.Class != HighlightNone {
				t.Errorf("分隔符不应被高亮: %s", span.Class)
			}
			continue
		}

		want := wantClasses[span.WordIndex]
		if span.Class != want.class {
			t.Errorf("词%d分类 = %s，期望 %s", span.WordIndex, span.Class, want.class)
		}
		if span.Intensity != want.intensity {
			t.Errorf("词%d强度 = %.2f，期望 %.2f", span.WordIndex, span.Intensity, want.intensity)
		}
	}
}

// TestHighlightChunkNoActiveWord 测试无当前词时全部不高亮
func TestHighlightChunkNoActiveWord(t *testing.T) {
	spans := HighlightChunk("silent page words here", 0, -1)

	for _, span := range spans {
		if span.Class != HighlightNone || span.Intensity != 0 {
			t.Errorf("无当前词时跨度 %q 不应高亮: %s/%.2f",
				span.Text, span.Class, span.Intensity)
		}
	}
}

// TestPageWordRanges 测试页内词序号区间
func TestPageWordRanges(t *testing.T) {
	chunks := []pagination.TextChunk{
		{Text: "three words here"},
		{Text: "two words"},
		{Text: ""},
		{Text: "one"},
	}

	ranges := PageWordRanges(chunks, 10)

	want := []ChunkWordRange{
		{Start: 10, End: 13},
		{Start: 13, End: 15},
		{Start: 15, End: 15},
		{Start: 15, End: 16},
	}

	if len(ranges) != len(want) {
		t.Fatalf("区间数量 = %d，期望 %d", len(ranges), len(want))
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("区间%d = %+v，期望 %+v", i, ranges[i], want[i])
		}
	}
}

// TestActiveChunkIndex 测试当前块定位
func TestActiveChunkIndex(t *testing.T) {
	ranges := []ChunkWordRange{
		{Start: 0, End: 5},
		{Start: 5, End: 5}, // 空块
		{Start: 5, End: 9},
	}

	cases := []struct {
		wordIndex int
		want      int
	}{
		{0, 0},
		{4, 0},
		{5, 2}, // 空块不包含任何词
		{8, 2},
		{9, -1},
		{-1, -1},
	}

	for _, c := range cases {
		if got := ActiveChunkIndex(ranges, c.wordIndex); got != c.want {
			t.Errorf("ActiveChunkIndex(%d) = %d，期望 %d", c.wordIndex, got, c.want)
		}
	}
}

// TestHighlightPage 测试整页高亮
func TestHighlightPage(t *testing.T) {
	chunks := []pagination.TextChunk{
		{Text: "first chunk words"},
		{Text: "second chunk"},
	}

	page := HighlightPage(chunks, 100, 104)

	if len(page.ChunkSpans) != 2 {
		t.Fatalf("应该有2组跨度，实际: %d", len(page.ChunkSpans))
	}
	if page.ActiveChunk != 1 {
		t.Errorf("当前块应该为1，实际: %d", page.ActiveChunk)
	}

	// 词104是第二块的第二个词("chunk")
	found := false
	for _, span := range page.ChunkSpans[1] {
		if span.IsWord && span.WordIndex == 104 {
			found = true
			if span.Class != HighlightCurrent {
				t.Errorf("词104应该是当前词，实际: %s", span.Class)
			}
			if span.Text != "chunk" {
				t.Errorf("词104文本应该为chunk，实际: %q", span.Text)
			}
		}
	}
	if !found {
		t.Error("没有找到词104的跨度")
	}

	// 当前词不在页内时结构不变但无高亮
	outside := HighlightPage(chunks, 100, 50)
	if outside.ActiveChunk != -1 {
		t.Errorf("页外当前词的ActiveChunk应该为-1，实际: %d", outside.ActiveChunk)
	}
	for i := range page.ChunkSpans {
		if len(outside.ChunkSpans[i]) != len(page.ChunkSpans[i]) {
			t.Errorf("块%d跨度数量随高亮状态变化", i)
		}
	}
}

// TestShouldScroll 测试自动滚动判定
func TestShouldScroll(t *testing.T) {
	cases := []struct {
		name    string
		playing bool
		spanTop float64
		spanBot float64
		viewTop float64
		viewH   float64
		want    bool
	}{
		{"未播放时不滚动", false, 0, 20, 0, 600, false},
		{"安全带内不滚动", true, 300, 320, 0, 600, false},
		{"靠近顶部需要滚动", true, 50, 70, 0, 600, true},
		{"靠近底部需要滚动", true, 520, 540, 0, 600, true},
		{"视口偏移后安全带内", true, 1300, 1320, 1000, 600, false},
		{"视口偏移后越界", true, 1050, 1070, 1000, 600, true},
	}

	for _, c := range cases {
		got := ShouldScroll(c.playing, c.spanTop, c.spanBot, c.viewTop, c.viewH)
		if got != c.want {
			t.Errorf("%s: ShouldScroll = %v，期望 %v", c.name, got, c.want)
		}
	}
}
