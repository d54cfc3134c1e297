// Package services contains the server-side business logic of LoginLink:
// token generation, the issuance policy, the redemption engine, and the
// deferred cleanup scheduler.
package services

import (
	"fmt"
	"time"

	"github.com/loginlink/loginlink/internal/common"
	"github.com/loginlink/loginlink/internal/server/models"
)

// tokenByteLen is the raw entropy per token value, 32 bytes (256 bits)
// before hex encoding.
const tokenByteLen = 32

// GenerateTokens mints count fresh single-use token records. Values come
// from the cryptographically secure random source; duplicates within one
// call are impossible for practical purposes given the value space.
func GenerateTokens(count int) ([]models.LoginToken, error) {
	if count <= 0 {
		return nil, fmt.Errorf("token count must be positive: %w", common.ErrInvalidArgument)
	}

	now := time.Now()
	set := make([]models.LoginToken, 0, count)
	for i := 0; i < count; i++ {
		value, err := common.MakeRandHexString(tokenByteLen)
		if err != nil {
			return nil, fmt.Errorf("error generating token value: %w", err)
		}
		set = append(set, models.LoginToken{Value: value, CreatedAt: now})
	}

	return set, nil
}
