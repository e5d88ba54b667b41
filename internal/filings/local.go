package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dkhwang/memoir/internal/worker"
)

// LocalConfig configures the LocalClient
type LocalConfig struct {
	BaseURL     string
	APIKey      string
	BeginYear   int    // First business year of the extraction window
	ReportCode  string // Statutory report type, e.g. annual
	Dataset     string // Statement dataset selector (standalone/consolidated)
	Timeout     time.Duration
	SaveWorkers int // Concurrent statement saves
}

// LocalClient retrieves structured financial-statement extracts from a
// DART-style registry API for a confirmed registry id and serializes each
// statement as a tab-delimited text file under the run's workspace.
type LocalClient struct {
	baseURL     string
	apiKey      string
	beginYear   int
	reportCode  string
	dataset     string
	saveWorkers int
	httpClient  *http.Client
	limiter     *worker.Limiter // nil disables rate limiting
	now         func() time.Time
}

// NewLocalClient creates a new financial-extract client
func NewLocalClient(config LocalConfig, limiter *worker.Limiter) (*LocalClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("registry API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://opendart.fss.or.kr/api"
	}

	beginYear := config.BeginYear
	if beginYear == 0 {
		beginYear = 2020
	}

	reportCode := config.ReportCode
	if reportCode == "" {
		reportCode = "11011"
	}

	dataset := config.Dataset
	if dataset == "" {
		dataset = "OFS"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	saveWorkers := config.SaveWorkers
	if saveWorkers <= 0 {
		saveWorkers = 4
	}

	return &LocalClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      config.APIKey,
		beginYear:   beginYear,
		reportCode:  reportCode,
		dataset:     dataset,
		saveWorkers: saveWorkers,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     limiter,
		now:         time.Now,
	}, nil
}

// statementRow is one account line of an extracted statement.
type statementRow struct {
	ReceiptNo     string `json:"rcept_no"`
	BusinessYear  string `json:"bsns_year"`
	StatementDiv  string `json:"sj_div"` // BS, IS, CIS, CF, SCE
	StatementName string `json:"sj_nm"`
	AccountName   string `json:"account_nm"`
	TermName      string `json:"thstrm_nm"`
	TermAmount    string `json:"thstrm_amount"`
	PriorName     string `json:"frmtrm_nm"`
	PriorAmount   string `json:"frmtrm_amount"`
	Currency      string `json:"currency"`
}

type extractResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	List    []statementRow `json:"list"`
}

// statusNoData is the registry's "no matching data" status. Unknown
// registry ids and years without filings both come back with it.
const statusNoData = "013"

// FetchFinancials extracts every statement for the registry id over the
// configured window and saves each as a tab-delimited file under a per-id
// subdirectory of workspaceDir. Returns "" (with nil error) when the id is
// unknown to the registry or zero statements were extracted; both are
// expected outcomes, not failures.
func (c *LocalClient) FetchFinancials(ctx context.Context, registryID, workspaceDir string) (string, error) {
	endYear := c.now().Year() - 1 // Latest complete business year
	type statement struct {
		name string
		rows []statementRow
	}
	var statements []statement

	for year := c.beginYear; year <= endYear; year++ {
		rows, err := c.fetchYear(ctx, registryID, year)
		if err != nil {
			return "", fmt.Errorf("fetch year %d: %w", year, err)
		}
		for _, group := range groupByStatement(rows) {
			statements = append(statements, statement{
				name: fmt.Sprintf("statement_%d_%s.txt", year, group.div),
				rows: group.rows,
			})
		}
	}

	if len(statements) == 0 {
		return "", nil
	}

	dir := filepath.Join(workspaceDir, registryID+"_docs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	// Saves are independent: fan out across the pool, then join. The join
	// is a hard barrier; synthesis must not start before every file is on
	// disk or the fetch is declared failed.
	pool := worker.NewPool(c.saveWorkers)
	pool.Start()
	for _, st := range statements {
		pool.Submit(&worker.SaveJob{
			Path:  filepath.Join(dir, st.name),
			Write: statementWriter(st.rows),
		})
	}
	for _, result := range pool.Wait() {
		if err := result.GetError(); err != nil {
			return "", fmt.Errorf("save statement: %w", err)
		}
	}

	return dir, nil
}

func (c *LocalClient) fetchYear(ctx context.Context, registryID string, year int) ([]statementRow, error) {
	endpoint := fmt.Sprintf("%s/fnlttSinglAcntAll.json?%s", c.baseURL, url.Values{
		"crtfc_key":  {c.apiKey},
		"corp_code":  {registryID},
		"bsns_year":  {strconv.Itoa(year)},
		"reprt_code": {c.reportCode},
		"fs_div":     {c.dataset},
	}.Encode())

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query extracts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extract API status %d", resp.StatusCode)
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch parsed.Status {
	case "000":
		return parsed.List, nil
	case statusNoData:
		return nil, nil
	default:
		return nil, fmt.Errorf("extract API status %s: %s", parsed.Status, parsed.Message)
	}
}

type statementGroup struct {
	div  string
	rows []statementRow
}

// groupByStatement splits a year's rows into one group per statement,
// preserving first-seen order.
func groupByStatement(rows []statementRow) []statementGroup {
	var groups []statementGroup
	index := make(map[string]int)
	for _, row := range rows {
		div := row.StatementDiv
		if div == "" {
			div = "ETC"
		}
		i, ok := index[div]
		if !ok {
			i = len(groups)
			index[div] = i
			groups = append(groups, statementGroup{div: div})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// statementWriter renders a statement's rows as tab-delimited text with a
// header line, matching the plain-text format the synthesizer ingests.
func statementWriter(rows []statementRow) func(io.Writer) error {
	return func(w io.Writer) error {
		columns := []string{
			"rcept_no", "bsns_year", "sj_div", "sj_nm",
			"account_nm", "thstrm_nm", "thstrm_amount",
			"frmtrm_nm", "frmtrm_amount", "currency",
		}
		if _, err := fmt.Fprintln(w, strings.Join(columns, "\t")); err != nil {
			return err
		}
		for _, r := range rows {
			fields := []string{
				r.ReceiptNo, r.BusinessYear, r.StatementDiv, r.StatementName,
				r.AccountName, r.TermName, r.TermAmount,
				r.PriorName, r.PriorAmount, r.Currency,
			}
			if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
				return err
			}
		}
		return nil
	}
}
