package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var commasRegexp = regexp.MustCompile(`(\d+)(\d{3})`)

// Trim 앞뒤 공백을 제거하고, 연속된 공백(개행 포함)을 하나의 공백으로 변환한다.
func Trim(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// Truncate 문자열을 최대 max 글자(rune)로 자르고, 잘린 경우 suffix를 붙인다.
func Truncate(s string, max int, suffix string) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	return string(runes[:max]) + suffix
}

func FormatCommas(num int) string {
	str := fmt.Sprintf("%d", num)
	for n := ""; n != str; {
		n = str
		str = commasRegexp.ReplaceAllString(str, "$1,$2")
	}
	return str
}

// SplitFields 문자열을 공백(전각 공백 포함) 기준으로 나누어 비어있지 않은 토큰만 반환한다.
func SplitFields(s string) (first string, rest []string) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return "", nil
	}
	return tokens[0], tokens[1:]
}
