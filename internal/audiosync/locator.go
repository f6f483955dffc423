// internal/audiosync/locator.go
package audiosync

import (
	"sort"
	"unicode"

	"github.com/dlmmedia/powerwrite/internal/models"
)

// 启发式回退：平均每词约6个字符（含尾随空格）
const avgCharsPerWord = 6

// WordStarts 计算正文中每个词的起始字符偏移（升序）
// 供 WordIndexAt 的精确路径使用
func WordStarts(content string) []int {
	starts := make([]int, 0, len(content)/avgCharsPerWord)
	inWord := false

	for i, r := range content {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}

	return starts
}

// WordIndexAt 将字符偏移映射为词序号
//
// wordStarts 非空时走精确路径：二分查找 <= charPos 的最大起始偏移
// （上界减一），结果钳制在 [0, len-1]；
// wordStarts 为空时退化为 EstimateWordIndex 的粗略估算。
// 纯函数，永不报错，总是返回有效或尽力而为的序号。
func WordIndexAt(wordStarts []int, charPos int) int {
	if len(wordStarts) == 0 {
		return EstimateWordIndex(charPos)
	}

	idx := sort.SearchInts(wordStarts, charPos+1) - 1
	if idx < 0 {
		return 0
	}
	if idx >= len(wordStarts) {
		return len(wordStarts) - 1
	}
	return idx
}

// EstimateWordIndex 无词边界数据时的粗略估算: round(charPos / 6)
// 误差界约为每6字符±1词，仅在精确偏移尚未计算时使用
func EstimateWordIndex(charPos int) int {
	if charPos <= 0 {
		return 0
	}
	return (charPos + avgCharsPerWord/2) / avgCharsPerWord
}

// ActiveWordIndex 返回播放时刻 t（秒）正在朗读的词序号
// 时间戳按 Start 升序；没有包含 t 的窗口时返回 -1（静默不高亮）
func ActiveWordIndex(timestamps []models.AudioTimestamp, t float64) int {
	if len(timestamps) == 0 {
		return -1
	}

	idx := sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i].Start > t
	}) - 1

	if idx >= 0 && t <= timestamps[idx].End {
		return idx
	}
	return -1
}

// ValidateTimestamps 校验对齐服务返回的时间戳
// 要求 Start 升序且每条 Start <= End；返回首个违规条目的序号，合法时返回 -1
func ValidateTimestamps(timestamps []models.AudioTimestamp) int {
	prev := -1.0
	for i, ts := range timestamps {
		if ts.Start < prev || ts.Start > ts.End {
			return i
		}
		prev = ts.Start
	}
	return -1
}
