package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"golang.org/x/text/language"
)

// LanguageKey gin 上下文中协商出的语言
const LanguageKey = "lang"

// 第一个为默认语言
var (
	supported = []string{model.DefaultLanguage, "en"}
	matcher   = language.NewMatcher([]language.Tag{language.Spanish, language.English})
)

// Language 根据 ?lang= 或 Accept-Language 选择提示语言
func Language() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, index := language.MatchStrings(matcher, c.Query("lang"), c.GetHeader("Accept-Language"))
		c.Set(LanguageKey, supported[index])
		c.Next()
	}
}

// Lang 读取当前请求的语言
func Lang(c *gin.Context) string {
	if lang := c.GetString(LanguageKey); lang != "" {
		return lang
	}
	return model.DefaultLanguage
}
