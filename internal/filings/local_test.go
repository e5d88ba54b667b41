package filings

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func newLocalTestClient(t *testing.T, serverURL string) *LocalClient {
	t.Helper()
	client, err := NewLocalClient(LocalConfig{
		BaseURL:   serverURL,
		APIKey:    "test-key",
		BeginYear: 2022,
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.now = fixedNow
	return client
}

func TestLocalClient_FetchFinancials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("crtfc_key") != "test-key" {
			t.Errorf("missing api key, got %q", q.Get("crtfc_key"))
		}
		if q.Get("corp_code") != "00126380" {
			t.Errorf("unexpected corp code: %q", q.Get("corp_code"))
		}
		if q.Get("reprt_code") != "11011" || q.Get("fs_div") != "OFS" {
			t.Errorf("unexpected report selectors: %v", q)
		}

		year := q.Get("bsns_year")
		if year == "2023" {
			// Second year has no filing yet
			_, _ = w.Write([]byte(`{"status": "013", "message": "no data"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"status": "000", "message": "ok", "list": [
			{"rcept_no": "r1", "bsns_year": %q, "sj_div": "BS", "sj_nm": "재무상태표", "account_nm": "자산총계", "thstrm_amount": "100", "currency": "KRW"},
			{"rcept_no": "r1", "bsns_year": %q, "sj_div": "BS", "sj_nm": "재무상태표", "account_nm": "부채총계", "thstrm_amount": "40", "currency": "KRW"},
			{"rcept_no": "r1", "bsns_year": %q, "sj_div": "IS", "sj_nm": "손익계산서", "account_nm": "매출액", "thstrm_amount": "70", "currency": "KRW"}
		]}`, year, year, year)
	}))
	defer server.Close()

	client := newLocalTestClient(t, server.URL)
	workspace := t.TempDir()

	dir, err := client.FetchFinancials(context.Background(), "00126380", workspace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != filepath.Join(workspace, "00126380_docs") {
		t.Errorf("unexpected document dir: %q", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read document dir: %v", err)
	}
	// 2022 produced BS and IS statements; 2023 had no data
	if len(entries) != 2 {
		t.Fatalf("expected 2 statement files, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, "statement_2022_BS.txt"))
	if err != nil {
		t.Fatalf("read statement: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "rcept_no\tbsns_year") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "자산총계\t") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
}

func TestLocalClient_UnknownID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "013", "message": "no data"}`))
	}))
	defer server.Close()

	client := newLocalTestClient(t, server.URL)
	workspace := t.TempDir()

	dir, err := client.FetchFinancials(context.Background(), "99999999", workspace)
	if err != nil {
		t.Fatalf("unknown id must not error: %v", err)
	}
	if dir != "" {
		t.Errorf("expected empty dir for unknown id, got %q", dir)
	}

	entries, _ := os.ReadDir(workspace)
	if len(entries) != 0 {
		t.Error("no directory should be created when nothing was extracted")
	}
}

func TestLocalClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "020", "message": "invalid key"}`))
	}))
	defer server.Close()

	client := newLocalTestClient(t, server.URL)

	if _, err := client.FetchFinancials(context.Background(), "00126380", t.TempDir()); err == nil {
		t.Error("expected error for API error status")
	}
}

func TestLocalClient_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newLocalTestClient(t, server.URL)

	if _, err := client.FetchFinancials(context.Background(), "00126380", t.TempDir()); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestLocalClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewLocalClient(LocalConfig{}, nil); err == nil {
		t.Error("expected error without API key")
	}
}

func TestGroupByStatement(t *testing.T) {
	rows := []statementRow{
		{StatementDiv: "BS", AccountName: "a"},
		{StatementDiv: "IS", AccountName: "b"},
		{StatementDiv: "BS", AccountName: "c"},
		{StatementDiv: "", AccountName: "d"},
	}

	groups := groupByStatement(rows)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].div != "BS" || len(groups[0].rows) != 2 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].div != "IS" {
		t.Errorf("unexpected second group: %+v", groups[1])
	}
	if groups[2].div != "ETC" {
		t.Errorf("rows without a division should group under ETC, got %q", groups[2].div)
	}
}
