package services

import (
	"bufio"
	"os"
	"strings"
	"unicode"
)

const passwordSpecialChars = "!@#$%^&*.,"

// ValidatePassword enforces the password policy: at least 8 characters with an
// uppercase letter, a digit and a special character, and not on the blacklist.
func ValidatePassword(password string, blackList map[string]bool) error {
	if len(password) < 8 {
		return invalid("password must be at least 8 characters long")
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		return invalid("password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return invalid("password must contain at least one number")
	}
	if !hasSpecial {
		return invalid("password must contain at least one special character (%s)", passwordSpecialChars)
	}
	if blackList[password] {
		return invalid("password is too common, please choose a stronger one")
	}
	return nil
}

// LoadBlackList reads one password per line.
func LoadBlackList(filePath string) (map[string]bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blackList := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			blackList[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blackList, nil
}
