// File path: internal/graph/kuzu/client.go
package kuzu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/telemetry"
	"github.com/nextsteplk/pathway/internal/graph"
)

// Client implements graph.Client using the Kuzu REST API with a lightweight
// connection pool to limit concurrent queries.
type Client struct {
	cfg        Config
	httpClient *http.Client
	transport  *http.Transport
	baseURL    string

	pool      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	available bool
}

type queryRequest struct {
	Query    string                 `json:"query"`
	Params   map[string]interface{} `json:"params,omitempty"`
	Database string                 `json:"database,omitempty"`
}

type queryResponse struct {
	Rows  []map[string]interface{} `json:"rows,omitempty"`
	Error string                   `json:"error,omitempty"`
}

// NewClient constructs a client from the provided configuration. A failed
// initial ping leaves the client constructed but unavailable.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kuzu disabled")
	}
	logger := common.Logger()
	logger.Info("graph: initializing kuzu client", "endpoint", cfg.Endpoint, "database", cfg.Database, "pool", cfg.MaxConnections, "timeout", cfg.Timeout)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		pool:       make(chan struct{}, cfg.MaxConnections),
		closing:    make(chan struct{}),
	}
	for i := 0; i < cfg.MaxConnections; i++ {
		client.pool <- struct{}{}
	}
	client.setAvailable(true)
	if err := client.ping(ctx); err != nil {
		logger.Warn("graph: kuzu ping failed", "error", err)
		client.setAvailable(false)
		return client, nil
	}
	logger.Info("graph: kuzu client ready")
	return client, nil
}

// NewFromEnv loads configuration and constructs a client instance.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	return NewClient(ctx, cfg)
}

// Available reports whether the client is ready for use.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		close(c.closing)
		c.setAvailable(false)
		if c.transport != nil {
			c.transport.CloseIdleConnections()
		}
	})
	return nil
}

// EnsureSchema creates the node tables and relationship types for the
// education graph.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if c == nil {
		return errors.New("kuzu client not configured")
	}
	statements := []string{
		`CREATE NODE TABLE IF NOT EXISTS Institute (
            name STRING,
            updated_at DATETIME,
            PRIMARY KEY (name)
        );`,
		`CREATE NODE TABLE IF NOT EXISTS Department (
            name STRING,
            institute STRING,
            updated_at DATETIME,
            PRIMARY KEY (name)
        );`,
		`CREATE NODE TABLE IF NOT EXISTS Program (
            name STRING,
            department STRING,
            updated_at DATETIME,
            PRIMARY KEY (name)
        );`,
		`CREATE NODE TABLE IF NOT EXISTS Qualification (
            name STRING,
            updated_at DATETIME,
            PRIMARY KEY (name)
        );`,
		`CREATE NODE TABLE IF NOT EXISTS Career (
            title STRING,
            updated_at DATETIME,
            PRIMARY KEY (title)
        );`,
		`CREATE REL TABLE IF NOT EXISTS HAS_DEPARTMENT (
            FROM Institute TO Department,
            updated_at DATETIME,
            PRIMARY KEY (FROM, TO)
        );`,
		`CREATE REL TABLE IF NOT EXISTS OFFERS (
            FROM Department TO Program,
            updated_at DATETIME,
            PRIMARY KEY (FROM, TO)
        );`,
		`CREATE REL TABLE IF NOT EXISTS REQUIRES (
            FROM Program TO Qualification,
            updated_at DATETIME,
            PRIMARY KEY (FROM, TO)
        );`,
		`CREATE REL TABLE IF NOT EXISTS IS_PREREQUISITE_FOR (
            FROM Program TO Program,
            updated_at DATETIME,
            PRIMARY KEY (FROM, TO)
        );`,
		`CREATE REL TABLE IF NOT EXISTS LEADS_TO (
            FROM Program TO Career,
            updated_at DATETIME,
            PRIMARY KEY (FROM, TO)
        );`,
	}
	for _, stmt := range statements {
		if err := c.exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertInstitute upserts an institute node.
func (c *Client) InsertInstitute(ctx context.Context, institute graph.Institute) error {
	if strings.TrimSpace(institute.Name) == "" {
		return errors.New("institute name required")
	}
	query := `MERGE (i:Institute {name: $name})
SET i.updated_at = datetime();`
	return c.exec(ctx, query, map[string]interface{}{"name": institute.Name})
}

// InsertDepartment upserts a department node and attaches it to its institute.
func (c *Client) InsertDepartment(ctx context.Context, department graph.Department) error {
	if strings.TrimSpace(department.Name) == "" {
		return errors.New("department name required")
	}
	params := map[string]interface{}{
		"name":      department.Name,
		"institute": department.Institute,
	}
	query := `MERGE (d:Department {name: $name})
SET d.institute = $institute,
    d.updated_at = datetime();`
	if err := c.exec(ctx, query, params); err != nil {
		return err
	}
	if strings.TrimSpace(department.Institute) == "" {
		return nil
	}
	link := `MATCH (i:Institute {name: $institute})
MATCH (d:Department {name: $name})
MERGE (i)-[rel:HAS_DEPARTMENT]->(d)
SET rel.updated_at = datetime();`
	return c.exec(ctx, link, params)
}

// InsertQualification upserts a qualification node.
func (c *Client) InsertQualification(ctx context.Context, qualification graph.Qualification) error {
	if strings.TrimSpace(qualification.Name) == "" {
		return errors.New("qualification name required")
	}
	query := `MERGE (q:Qualification {name: $name})
SET q.updated_at = datetime();`
	return c.exec(ctx, query, map[string]interface{}{"name": qualification.Name})
}

// InsertCareer upserts a career node.
func (c *Client) InsertCareer(ctx context.Context, career graph.Career) error {
	if strings.TrimSpace(career.Title) == "" {
		return errors.New("career title required")
	}
	query := `MERGE (c:Career {title: $title})
SET c.updated_at = datetime();`
	return c.exec(ctx, query, map[string]interface{}{"title": career.Title})
}

// InsertProgram upserts a program node together with its OFFERS, REQUIRES and
// LEADS_TO relationships.
func (c *Client) InsertProgram(ctx context.Context, program graph.Program) error {
	if strings.TrimSpace(program.Name) == "" {
		return errors.New("program name required")
	}
	params := map[string]interface{}{
		"name":       program.Name,
		"department": program.Department,
	}
	query := `MERGE (p:Program {name: $name})
SET p.department = $department,
    p.updated_at = datetime();`
	if err := c.exec(ctx, query, params); err != nil {
		return err
	}
	if strings.TrimSpace(program.Department) != "" {
		offer := `MATCH (d:Department {name: $department})
MATCH (p:Program {name: $name})
MERGE (d)-[rel:OFFERS]->(p)
SET rel.updated_at = datetime();`
		if err := c.exec(ctx, offer, params); err != nil {
			return err
		}
	}
	for _, qualification := range program.Qualifications {
		if strings.TrimSpace(qualification) == "" {
			continue
		}
		requires := `MATCH (p:Program {name: $name})
MATCH (q:Qualification {name: $qualification})
MERGE (p)-[rel:REQUIRES]->(q)
SET rel.updated_at = datetime();`
		if err := c.exec(ctx, requires, map[string]interface{}{"name": program.Name, "qualification": qualification}); err != nil {
			return err
		}
	}
	for _, career := range program.Careers {
		if strings.TrimSpace(career) == "" {
			continue
		}
		leads := `MATCH (p:Program {name: $name})
MATCH (c:Career {title: $career})
MERGE (p)-[rel:LEADS_TO]->(c)
SET rel.updated_at = datetime();`
		if err := c.exec(ctx, leads, map[string]interface{}{"name": program.Name, "career": career}); err != nil {
			return err
		}
	}
	return nil
}

// LinkPrerequisite upserts an IS_PREREQUISITE_FOR edge between two programs.
func (c *Client) LinkPrerequisite(ctx context.Context, from, to string) error {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return errors.New("prerequisite endpoints required")
	}
	query := `MATCH (src:Program {name: $from})
MATCH (dst:Program {name: $to})
MERGE (src)-[rel:IS_PREREQUISITE_FOR]->(dst)
SET rel.updated_at = datetime();`
	return c.exec(ctx, query, map[string]interface{}{"from": from, "to": to})
}

// ProgramsRequiring returns the names of programs that directly require the
// qualification.
func (c *Client) ProgramsRequiring(ctx context.Context, qualification string) ([]string, error) {
	query := `MATCH (p:Program)-[:REQUIRES]->(q:Qualification {name: $name})
RETURN p.name AS name;`
	rows, err := c.query(ctx, query, map[string]interface{}{"name": qualification})
	if err != nil {
		return nil, fmt.Errorf("programs requiring %q: %w", qualification, err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := rowString(row, "name"); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Successors returns the names of programs the given program is a direct
// prerequisite for.
func (c *Client) Successors(ctx context.Context, program string) ([]string, error) {
	query := `MATCH (src:Program {name: $name})-[:IS_PREREQUISITE_FOR]->(dst:Program)
RETURN dst.name AS name;`
	rows, err := c.query(ctx, query, map[string]interface{}{"name": program})
	if err != nil {
		return nil, fmt.Errorf("successors of %q: %w", program, err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := rowString(row, "name"); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ProgramDetails resolves the single-hop neighbourhood of a program.
func (c *Client) ProgramDetails(ctx context.Context, name string) (*graph.ProgramRecord, error) {
	query := `MATCH (p:Program {name: $name})
OPTIONAL MATCH (i:Institute)-[:HAS_DEPARTMENT]->(d:Department)-[:OFFERS]->(p)
OPTIONAL MATCH (p)-[:REQUIRES]->(q:Qualification)
OPTIONAL MATCH (pre:Program)-[:IS_PREREQUISITE_FOR]->(p)
OPTIONAL MATCH (p)-[:LEADS_TO]->(career:Career)
RETURN p.name AS name,
       i.name AS institute,
       d.name AS department,
       collect(DISTINCT q.name) AS qualifications,
       collect(DISTINCT pre.name) AS prerequisites,
       collect(DISTINCT career.title) AS careers;`
	rows, err := c.query(ctx, query, map[string]interface{}{"name": name})
	if err != nil {
		return nil, fmt.Errorf("program details for %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	record := &graph.ProgramRecord{
		Name:           rowString(row, "name"),
		Institute:      rowString(row, "institute"),
		Department:     rowString(row, "department"),
		Qualifications: rowStringList(row, "qualifications"),
		Prerequisites:  rowStringList(row, "prerequisites"),
		Careers:        rowStringList(row, "careers"),
	}
	if record.Name == "" {
		return nil, nil
	}
	return record, nil
}

func (c *Client) exec(ctx context.Context, query string, params map[string]interface{}) error {
	_, err := c.query(ctx, query, params)
	return err
}

func (c *Client) query(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	if c == nil {
		return nil, errors.New("kuzu client not configured")
	}
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	spanCtx, finish := telemetry.StartSpan(ctx, "graph.kuzu.query")
	start := time.Now()
	statusCode := 0
	defer func() {
		telemetry.RecordGraphQuery("kuzu_http", time.Since(start))
		finish("status", statusCode)
	}()

	payload := queryRequest{Query: query, Database: c.cfg.Database}
	if len(params) > 0 {
		payload.Params = params
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	request, err := http.NewRequestWithContext(spanCtx, http.MethodPost, c.baseURL+"/query", buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.cfg.Username != "" {
		request.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	resp, err := c.httpClient.Do(request)
	if err != nil {
		c.setAvailable(false)
		return nil, fmt.Errorf("kuzu request failed: %w", err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode
	if resp.StatusCode >= 400 {
		c.setAvailable(false)
		return nil, fmt.Errorf("kuzu query failed: status %d", resp.StatusCode)
	}
	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		if ctxErr := spanCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("kuzu request canceled: %w", ctxErr)
		}
		return nil, fmt.Errorf("decode kuzu response: %w", err)
	}
	if strings.TrimSpace(qr.Error) != "" {
		return nil, errors.New(qr.Error)
	}
	c.setAvailable(true)
	return qr.Rows, nil
}

func (c *Client) ping(ctx context.Context) error {
	pingTimeout := c.cfg.Timeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	const minPingTimeout = 500 * time.Millisecond
	if pingTimeout < minPingTimeout {
		pingTimeout = minPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.exec(ctx, "RETURN 1;", nil)
}

func (c *Client) setAvailable(ready bool) {
	c.mu.Lock()
	c.available = ready
	c.mu.Unlock()
}

func (c *Client) acquire(ctx context.Context) error {
	if !c.Available() {
		return errors.New("kuzu unavailable")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closing:
		return errors.New("kuzu client closed")
	case <-c.pool:
		return nil
	}
}

func (c *Client) release() {
	select {
	case c.pool <- struct{}{}:
	default:
	}
}

func rowString(row map[string]interface{}, key string) string {
	value, ok := row[key]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return strings.TrimSpace(str)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func rowStringList(row map[string]interface{}, key string) []string {
	value, ok := row[key]
	if !ok || value == nil {
		return nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		str, ok := item.(string)
		if !ok {
			str = fmt.Sprint(item)
		}
		str = strings.TrimSpace(str)
		if str == "" {
			continue
		}
		out = append(out, str)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
