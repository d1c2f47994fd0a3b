package utils

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

// battletag: имя без # и пробелов, решётка, числовой дискриминатор.
var battleTagRe = regexp.MustCompile(`^[^#\s]{2,32}#\d{1,10}$`)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeBattleTag убирает внешние пробелы и проверяет формат "Name#1234".
func NormalizeBattleTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if !battleTagRe.MatchString(tag) {
		return "", errors.New("expected format Name#1234")
	}
	return tag, nil
}
