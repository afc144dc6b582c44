package employee

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"TEMPO-backend/internal/platform/db"
)

const pinAttempts = 20

// generatePIN: 物件 ID を接頭辞に 4 桁乱数を付けた打刻用 PIN。
// 衝突したら引き直す。UNIQUE キーが最終防衛線。
func generatePIN(ctx context.Context, tx db.DBTX, propertyID int64) (string, error) {
	for i := 0; i < pinAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", err
		}
		pin := fmt.Sprintf("%d%04d", propertyID, n.Int64())
		exists, err := pinExistsTx(ctx, tx, pin)
		if err != nil {
			return "", err
		}
		if !exists {
			return pin, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique pin for property %d", propertyID)
}
