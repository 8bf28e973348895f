package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spgci/spgci-go/internal/testutil"
)

func runCommand(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()
	return out.String(), err
}

func setTestCredentials(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("SPGCI_USERNAME", "user@example.com")
	t.Setenv("SPGCI_PASSWORD", "secret")
	t.Setenv("SPGCI_BASE_URL", baseURL)
}

func TestGetCommandJSON(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetDataset("/data", []map[string]any{
		{"symbol": "PCAAS00", "value": 85.25},
	})

	setTestCredentials(t, mock.URL())

	stdout, err := runCommand(t, "get", "data", "--output", "json")
	if err != nil {
		t.Fatalf("get command error = %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(rows) != 1 || rows[0]["symbol"] != "PCAAS00" {
		t.Errorf("rows = %v, want one PCAAS00 row", rows)
	}
}

func TestGetCommandCSV(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetDataset("/data", []map[string]any{
		{"symbol": "PCAAS00", "value": 85.25},
	})

	setTestCredentials(t, mock.URL())

	stdout, err := runCommand(t, "get", "data", "--output", "csv")
	if err != nil {
		t.Fatalf("get command error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one row:\n%s", len(lines), stdout)
	}
	if !strings.Contains(lines[0], "symbol") {
		t.Errorf("header = %q, want a symbol column", lines[0])
	}
}

func TestGetCommandFilterParam(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetDataset("/data", nil)

	setTestCredentials(t, mock.URL())

	_, err := runCommand(t, "get", "data", "--filter", `symbol: "PCAAS00"`, "--output", "json")
	if err != nil {
		t.Fatalf("get command error = %v", err)
	}

	if got := mock.LastQuery.Get("filter"); got != `symbol: "PCAAS00"` {
		t.Errorf("filter param = %q", got)
	}
}

func TestGetCommandMissingCredentials(t *testing.T) {
	t.Setenv("SPGCI_USERNAME", "")
	t.Setenv("SPGCI_PASSWORD", "")

	_, err := runCommand(t, "get", "data")
	if err == nil {
		t.Fatal("get command should fail without credentials")
	}
}

func TestTokenCommand(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	setTestCredentials(t, mock.URL())

	stdout, err := runCommand(t, "token")
	if err != nil {
		t.Fatalf("token command error = %v", err)
	}
	if strings.TrimSpace(stdout) != testutil.Token {
		t.Errorf("stdout = %q, want the issued token", stdout)
	}
}

func TestSplitParam(t *testing.T) {
	tests := []struct {
		in       string
		key, val string
		ok       bool
	}{
		{"field=deltaPrice", "field", "deltaPrice", true},
		{"a=b=c", "a", "b=c", true},
		{"novalue=", "novalue", "", true},
		{"=x", "", "", false},
		{"plain", "", "", false},
	}

	for _, tt := range tests {
		key, val, ok := splitParam(tt.in)
		if key != tt.key || val != tt.val || ok != tt.ok {
			t.Errorf("splitParam(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, key, val, ok, tt.key, tt.val, tt.ok)
		}
	}
}
