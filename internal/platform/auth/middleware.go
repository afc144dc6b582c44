package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxIdentityKey = "identity"

// ロール。ADMIN は全権、PROPERTY_ADMIN は自分の物件のみ、READ_ONLY は参照のみ。
const (
	RoleAdmin         = "ADMIN"
	RolePropertyAdmin = "PROPERTY_ADMIN"
	RoleReadOnly      = "READ_ONLY"
)

// Identity: トークンから復元したログインユーザ。監査・権限チェックで使う。
type Identity struct {
	UserID     int64
	Username   string
	Role       string
	PropertyID int64 // PROPERTY_ADMIN / READ_ONLY のスコープ。0 = 未割当
}

// FromContext: RequireAuth 通過後のハンドラ/サービスで呼ぶ
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// RequireAuth: Authorization: Bearer <token> を検証して Identity を context に詰める。
// ログアウト済みトークン（blacklist）も弾く。
func RequireAuth(secret []byte, blacklist *TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}
		if blacklist != nil && blacklist.Contains(tokenStr) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			// alg 固定（none攻撃とか回避）
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		ident, ok := identityFromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		c.Set(ctxIdentityKey, ident)
		c.Next()
	}
}

func identityFromClaims(claims jwt.MapClaims) (Identity, bool) {
	var ident Identity

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return ident, false
	}
	ident.UserID = int64(sub)

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return ident, false
	}
	ident.Username = username

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return ident, false
	}
	ident.Role = role

	if pid, ok := claims["property_id"].(float64); ok {
		ident.PropertyID = int64(pid)
	}
	return ident, true
}

// RequireRole: 例) ADMIN のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		ident, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing identity"})
			return
		}

		if _, allowed := roleSet[ident.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
