package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifierAccepts(t *testing.T) {
	valid := []string{
		"users",
		"Users",
		"_private",
		"sales_2024",
		"employees_1714049395123",
		"a",
	}
	for _, name := range valid {
		assert.NoError(t, ValidateIdentifier(name), "identifier %q", name)
	}
}

func TestValidateIdentifierRejects(t *testing.T) {
	invalid := []string{
		"",
		"1table",
		"has space",
		"has-dash",
		"semi;colon",
		"drop table users",
		"users; DROP TABLE users--",
		"users'--",
		`users"`,
		"таблица",
		strings.Repeat("a", MaxIdentifierLength+1),
	}
	for _, name := range invalid {
		assert.Error(t, ValidateIdentifier(name), "identifier %q", name)
	}
}

func TestValidateIdentifiers(t *testing.T) {
	assert.NoError(t, ValidateIdentifiers([]string{"id", "name", "created_at"}))
	assert.Error(t, ValidateIdentifiers([]string{"id", "bad name"}))
	assert.NoError(t, ValidateIdentifiers(nil))
}

func TestCheckIdentifierForInjection(t *testing.T) {
	// Plain identifiers carry no injection fingerprint.
	assert.Nil(t, CheckIdentifierForInjection("customers"))

	// Classic payloads are flagged.
	result := CheckIdentifierForInjection("1' OR '1'='1")
	if assert.NotNil(t, result) {
		assert.True(t, result.IsSQLi)
		assert.NotEmpty(t, result.Fingerprint)
	}
}
