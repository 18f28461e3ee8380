package clickhouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCreateTable(t *testing.T) {
	ddl, err := BuildCreateTable("employees_1714049395123", []string{"First_Name", "Age"})
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE employees_1714049395123 (First_Name String, Age String) ENGINE = MergeTree() ORDER BY tuple()",
		ddl)
}

func TestBuildCreateTableSingleColumn(t *testing.T) {
	ddl, err := BuildCreateTable("t", []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t (id String) ENGINE = MergeTree() ORDER BY tuple()", ddl)
}

func TestBuildCreateTableRejectsBadIdentifiers(t *testing.T) {
	_, err := BuildCreateTable("users; DROP TABLE users", []string{"id"})
	assert.Error(t, err)

	_, err = BuildCreateTable("users", []string{"id", "bad name"})
	assert.Error(t, err)

	_, err = BuildCreateTable("users", nil)
	assert.Error(t, err)
}

func TestResolveAddr(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		wantAddr string
		wantTLS  bool
		wantErr  bool
	}{
		{name: "bare host", host: "db.example.com", wantAddr: "db.example.com:9000"},
		{name: "host with port", host: "db.example.com:9001", wantAddr: "db.example.com:9001"},
		{name: "http prefix stripped", host: "http://db.example.com", wantAddr: "db.example.com:9000"},
		{name: "https prefix enables tls", host: "https://db.example.com", wantAddr: "db.example.com:9440", wantTLS: true},
		{name: "clickhouse scheme", host: "clickhouse://db.example.com:9000", wantAddr: "db.example.com:9000"},
		{name: "secure port implies tls", host: "db.example.com:9440", wantAddr: "db.example.com:9440", wantTLS: true},
		{name: "trailing slash", host: "http://db.example.com/", wantAddr: "db.example.com:9000"},
		{name: "empty", host: "", wantErr: true},
		{name: "scheme only", host: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, useTLS, err := resolveAddr(tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, addr)
			assert.Equal(t, tt.wantTLS, useTLS)
		})
	}
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "", stringValue(nil))
	assert.Equal(t, "hello", stringValue("hello"))
	assert.Equal(t, "42", stringValue(42))
	assert.Equal(t, "3.5", stringValue(3.5))
	assert.Equal(t, "true", stringValue(true))
}
