package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCode(t *testing.T) {
	t.Run("标记词后跟六位数字", func(t *testing.T) {
		assert.Equal(t, "123456", ExtractCode("Your code is 123456"))
	})

	t.Run("六位数字在标记词之前", func(t *testing.T) {
		assert.Equal(t, "884211", ExtractCode("884211 is your verification code"))
	})

	t.Run("中文标记词后跟四位数字", func(t *testing.T) {
		assert.Equal(t, "8842", ExtractCode("验证码：8842"))
	})

	t.Run("标记词后跟字母数字混合码", func(t *testing.T) {
		assert.Equal(t, "A1B2C3", ExtractCode("您的验证码 A1B2C3 五分钟内有效"))
	})

	t.Run("没有标记词时不提取", func(t *testing.T) {
		assert.Empty(t, ExtractCode("ABC-12AB"))
	})

	t.Run("超长数字串不匹配", func(t *testing.T) {
		assert.Empty(t, ExtractCode("12345678901 code"))
	})

	t.Run("HTML标签被剥离后再匹配", func(t *testing.T) {
		assert.Equal(t, "667788", ExtractCode("<p>验证码</p><b>667788</b>"))
	})

	t.Run("nbsp实体按空白处理", func(t *testing.T) {
		assert.Equal(t, "445566", ExtractCode("code:&nbsp;445566"))
	})

	t.Run("规则按顺序取第一个命中", func(t *testing.T) {
		// 六位数字规则优先于 4-8 位数字规则
		assert.Equal(t, "123456", ExtractCode("验证码 123456 备用码 9988"))
	})

	t.Run("空文本不提取", func(t *testing.T) {
		assert.Empty(t, ExtractCode(""))
		assert.Empty(t, ExtractCode("<br/>"))
	})
}
