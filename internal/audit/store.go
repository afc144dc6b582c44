package audit

import (
	"context"

	"TEMPO-backend/internal/platform/db"
)

// Record: 監査行を書く。呼び出し元の管理系トランザクション内で使うこと
// （操作本体とセットでコミット/ロールバックされる）。
func Record(ctx context.Context, tx db.DBTX, userID int64, action string) error {
	const q = `
INSERT INTO audit_log (user_id, action, logged_on, logged_at)
VALUES (?, ?, CURDATE(), CURTIME())
`
	_, err := tx.ExecContext(ctx, q, userID, action)
	return err
}
