package gate

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
)

// HeaderAPIKey はAPIキーを受け取るヘッダー名。
const HeaderAPIKey = "X-API-Key"

// APIKey はサーバー間連携用の共有シークレット。
type APIKey struct {
	// Label はログに出力する識別名。キーの値そのものは出力しない。
	Label string
	// Value はキーの値。
	Value string
}

// ParseAPIKeys は "label:key,label:key" 形式の文字列をAPIKeyのスライスに変換する。
// ラベルを省略した場合は "key-<番号>" を割り当てる。ラベルは最初の ':' までとする。
func ParseAPIKeys(s string) []APIKey {
	var keys []APIKey
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, value, found := strings.Cut(part, ":")
		if !found {
			label, value = "", part
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if label == "" {
			label = fmt.Sprintf("key-%d", i+1)
		}
		keys = append(keys, APIKey{Label: label, Value: value})
	}
	return keys
}

// APIKeyCheck は X-API-Key ヘッダーを設定済みキー集合と照合する。
type APIKeyCheck struct {
	keys []APIKey
}

// NewAPIKeyCheck はAPIKeyCheckを生成する。値が空のキーは無視する。
// キー集合は起動時に一度だけ渡され、以後変更されない。
func NewAPIKeyCheck(keys []APIKey) *APIKeyCheck {
	valid := make([]APIKey, 0, len(keys))
	for _, k := range keys {
		if k.Value != "" {
			valid = append(valid, k)
		}
	}
	return &APIKeyCheck{keys: valid}
}

func (c *APIKeyCheck) Name() CheckName { return CheckAPIKey }

func (c *APIKeyCheck) Run(_ context.Context, st State) (State, *Denial) {
	raw := strings.TrimSpace(st.Header.Get(HeaderAPIKey))
	if raw == "" {
		return st, deny(KindUnauthenticated, CheckAPIKey, ReasonMissingAPIKey, nil)
	}

	label, ok := c.match(raw)
	if !ok {
		return st, deny(KindUnauthenticated, CheckAPIKey, ReasonInvalidAPIKey, nil)
	}

	st.ServiceAuthenticated = true
	st.APIKeyLabel = label
	return st, nil
}

// match は一致するキーのラベルを返す。
// 一致位置で処理時間が変わらないよう、一致後も全キーと比較する。
func (c *APIKeyCheck) match(raw string) (string, bool) {
	var (
		label string
		found bool
	)
	for _, k := range c.keys {
		if subtle.ConstantTimeCompare([]byte(raw), []byte(k.Value)) == 1 && !found {
			label = k.Label
			found = true
		}
	}
	return label, found
}
