package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter 基于 tiktoken 的提示词 Token 计数器，
// 用于校验器的提示词预算告警。并发安全。
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenCounter 创建指定编码（如 "cl100k_base"）的计数器。
// 编码数据在首次计数时惰性加载。
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding}
}

// init lazily 初始化 tiktoken 编码（可能在第一次使用时下载数据）。
func (t *TiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// Count 返回文本的 Token 数。编码不可用时退化为按 4 字符 1 Token
// 的粗略估算，预算告警仍然可用。
func (t *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if err := t.init(); err != nil {
		return approximate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Name 返回计数器标识
func (t *TiktokenCounter) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// approximate 粗略估算：平均每 4 个字符约 1 个 Token
func approximate(text string) int {
	n := utf8.RuneCountInString(text)
	count := n / 4
	if count == 0 {
		count = 1
	}
	return count
}
