package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrim(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("テスト", Trim("テスト"))
	assert.Equal("テスト", Trim("   テスト   "))
	assert.Equal("다수 공백", Trim("   다수    공백   "))
	assert.Equal("@ 특수문자 $", Trim("   @    특수문자   $   "))

	// 다수의 라인이 포함되어 있는 문자열 체크
	assert.Equal("라인 1 라인2 라인3", Trim(`

		라인    1
		라인2


		라인3

		`))
}

func TestTruncate(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", Truncate("abc", 0, "..."))
	assert.Equal("abc", Truncate("abc", 3, "..."))
	assert.Equal("ab...", Truncate("abc", 2, "..."))
	assert.Equal("日本...", Truncate("日本語の記事", 2, "..."))
	assert.Equal("日本語の記事", Truncate("日本語の記事", 6, "..."))
}

func TestFormatCommas(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0", FormatCommas(0))
	assert.Equal("100", FormatCommas(100))
	assert.Equal("1,000", FormatCommas(1000))
	assert.Equal("1,234,567", FormatCommas(1234567))
	assert.Equal("-1,234,567", FormatCommas(-1234567))
}

func TestSplitFields(t *testing.T) {
	assert := assert.New(t)

	first, rest := SplitFields("")
	assert.Equal("", first)
	assert.Empty(rest)

	first, rest = SplitFields("  一覧  ")
	assert.Equal("一覧", first)
	assert.Empty(rest)

	first, rest = SplitFields("追加 https://x.com/feed")
	assert.Equal("追加", first)
	assert.Equal([]string{"https://x.com/feed"}, rest)

	// 전각 공백도 구분자로 처리한다.
	first, rest = SplitFields("削除　5")
	assert.Equal("削除", first)
	assert.Equal([]string{"5"}, rest)
}
