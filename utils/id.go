package utils

import (
	"github.com/google/uuid"
)

// GenerateID 生成请求/会话 ID
func GenerateID() string {
	return uuid.NewString()
}
