package postgres

import (
	"strings"
	"testing"

	postgresopts "github.com/lexfisc/lexfisc/pkg/options/postgres"
)

func testOptions(password string) *postgresopts.Options {
	return &postgresopts.Options{
		Host:     "localhost",
		Port:     5432,
		Username: "postgres",
		Password: password,
		Database: "testdb",
		SSLMode:  "disable",
	}
}

func TestBuildDSN_Basic(t *testing.T) {
	dsn := BuildDSN(testOptions("secret"))

	expectedParts := []string{
		"host=localhost",
		"port=5432",
		"user=postgres",
		"dbname=testdb",
		"sslmode=disable",
	}

	for _, part := range expectedParts {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN missing expected part: %s, got: %s", part, dsn)
		}
	}
}

func TestBuildDSN_PasswordEscaping(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		wantQuoted bool
	}{
		{
			name:       "simple password",
			password:   "secret",
			wantQuoted: false,
		},
		{
			name:       "password with space",
			password:   "pass word",
			wantQuoted: true,
		},
		{
			name:       "password with single quote",
			password:   "pass'word",
			wantQuoted: true,
		},
		{
			name:       "password with backslash",
			password:   "pass\\word",
			wantQuoted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := BuildDSN(testOptions(tt.password))

			if tt.wantQuoted {
				if !strings.Contains(dsn, "password='") {
					t.Errorf("password should be quoted: %s", dsn)
				}
			}

			if tt.password == "pass word" && strings.Contains(dsn, "password=pass word") {
				t.Error("password with space should be quoted")
			}
		})
	}
}

func TestBuildURI_PasswordEscaping(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected string
	}{
		{
			name:     "simple password",
			password: "secret",
			expected: "secret",
		},
		{
			name:     "password with at sign",
			password: "pass@word",
			expected: "pass%40word",
		},
		{
			name:     "password with slash",
			password: "pass/word",
			expected: "pass%2Fword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri := BuildURI(testOptions(tt.password))

			expectedPart := "postgres:" + tt.expected + "@"
			if !strings.Contains(uri, expectedPart) {
				t.Errorf("URI password not properly escaped: got %s, expected to contain %s", uri, expectedPart)
			}
		})
	}
}

func TestEscapePostgresValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"", "''"},
		{"with space", "'with space'"},
		{"with'quote", "'with''quote'"},
		{"with\\backslash", "'with\\\\backslash'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapePostgresValue(tt.input)
			if result != tt.expected {
				t.Errorf("escapePostgresValue(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
