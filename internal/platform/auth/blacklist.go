package auth

import "sync"

// TokenBlacklist: ログアウト済みトークンのプロセス内集合。
// トークン自体の exp が上限なので、単一プロセス運用ではこれで足りる。
type TokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]struct{})}
}

func (b *TokenBlacklist) Add(token string) {
	if token == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = struct{}{}
}

func (b *TokenBlacklist) Contains(token string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.tokens[token]
	return ok
}
