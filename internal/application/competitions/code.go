package competitions

import (
	"strings"

	"papertrade-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	codeLength      = 8
	maxCodeAttempts = 10
)

// CodeGenerator produces candidate competition codes.
type CodeGenerator func() string

// RandomCode returns eight lowercase hex characters.
func RandomCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:codeLength]
}

// AllocateCode draws codes from gen until one is unused. The unique index on
// competitions.code still guards against a concurrent insert of the same code.
func AllocateCode(tx *gorm.DB, gen CodeGenerator) (string, error) {
	if gen == nil {
		gen = RandomCode
	}
	for i := 0; i < maxCodeAttempts; i++ {
		code := gen()
		var n int64
		if err := tx.Model(&domain.Competition{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", domain.ErrCompetitionCodeExhausted
}
