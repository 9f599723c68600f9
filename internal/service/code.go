package service

import (
	"regexp"
	"strings"
)

// 验证码提取规则，按顺序匹配，命中即返回：
//  1. 标记词后跟恰好 6 位数字
//  2. 6 位数字后跟标记词
//  3. 标记词后跟 4-8 位数字
//  4. 标记词后跟 4-8 位字母数字混合
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:验证码|code|码)[^\d]*(\d{6})\b`),
	regexp.MustCompile(`(?i)\b(\d{6})\b[^\d]*(?:验证码|code|码)`),
	regexp.MustCompile(`(?i)(?:验证码|code|码)[^\d]*(\d{4,8})\b`),
	regexp.MustCompile(`(?i)(?:验证码|code|码)[^a-zA-Z0-9]*([A-Za-z0-9]{4,8})\b`),
}

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	nbspPattern    = regexp.MustCompile(`&nbsp;?`)
)

// ExtractCode 从主题和正文的组合文本中提取验证码。
// 先去除标记标签与不换行空格实体，再按规则顺序匹配，无命中返回空串。
func ExtractCode(text string) string {
	plain := htmlTagPattern.ReplaceAllString(text, " ")
	plain = nbspPattern.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return ""
	}

	for _, pattern := range codePatterns {
		if m := pattern.FindStringSubmatch(plain); m != nil {
			return m[1]
		}
	}
	return ""
}
