package model

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID 生成带前缀的记录 ID，格式 prefix-xxxxxxxxxxxxxxxx
func NewID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
