package psapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrHostRequired     = errors.New("host is required")
	ErrTableNotInRecord = errors.New("table not present in record")
	ErrInvalidClient    = errors.New("you must provide a valid access token, token cache or client credentials")
	ErrNotAuthorized    = errors.New("client has not been authorized")
	ErrNameRequired     = errors.New("schema name is required")
	ErrPrimaryKey       = errors.New("primary key is required")
)

// Record is a single row as returned by the API.
type Record map[string]interface{}

// Metadata is the server capability record from /ws/v1/metadata.
type Metadata struct {
	PluginID                    int    `json:"plugin_id"                        yaml:"plugin_id"`
	PowerSchoolVersion          string `json:"powerschool_version"              yaml:"powerschool_version"`
	SchemaTableQueryMaxPageSize int    `json:"schema_table_query_max_page_size" yaml:"schema_table_query_max_page_size"`

	// Raw holds every reported field, including the ones above.
	Raw map[string]interface{} `json:"-" yaml:"-"`
}

// Get returns a reported metadata field by name.
func (m *Metadata) Get(key string) (interface{}, bool) {
	if m == nil || m.Raw == nil {
		return nil, false
	}

	v, ok := m.Raw[key]

	return v, ok
}

// ParseMetadata decodes a {"metadata": {...}} envelope.
func ParseMetadata(body []byte) (*Metadata, error) {
	var envelope struct {
		Metadata json.RawMessage `json:"metadata"`
	}

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	md := &Metadata{}
	if len(envelope.Metadata) == 0 {
		md.Raw = map[string]interface{}{}

		return md, nil
	}

	err = json.Unmarshal(envelope.Metadata, md)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	err = json.Unmarshal(envelope.Metadata, &md.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return md, nil
}

// Session is the state established by a successful authorization. A session
// is never mutated; re-authorizing replaces it.
type Session struct {
	Host           string
	Metadata       *Metadata
	AuthorizedAt   time.Time
	TokenExpiresAt time.Time
}

// Column access levels that hide a column from projections.
const (
	AccessNoAccess          = "NoAccess"
	AccessBlackListNoAccess = "BlackListNoAccess"
)

// Column describes one column of a schema table.
type Column struct {
	Name        string `json:"name"                  yaml:"name"`
	Type        string `json:"type,omitempty"        yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Access      string `json:"access,omitempty"      yaml:"access,omitempty"`
}

// Readable reports whether the column may be projected.
func (c Column) Readable() bool {
	return c.Access != AccessNoAccess && c.Access != AccessBlackListNoAccess
}

// TableMetadata is the response of /ws/schema/table/{name}/metadata.
type TableMetadata struct {
	Name    string   `json:"name"    yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// StarProjection lists every readable column, lowercased and comma separated.
func (m *TableMetadata) StarProjection() string {
	names := make([]string, 0, len(m.Columns))

	for _, col := range m.Columns {
		if col.Readable() {
			names = append(names, strings.ToLower(col.Name))
		}
	}

	return strings.Join(names, ",")
}

// NamedQuery is an entry of the named query listing.
type NamedQuery struct {
	Name        string                 `json:"name"                  yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Extra       map[string]interface{} `json:"-"                     yaml:"-"`
}

// ParseNamedQueries decodes the /ws/schema/query/api listing. The server
// wraps the list in a "query" key; a bare array is accepted as well.
func ParseNamedQueries(body []byte) ([]NamedQuery, error) {
	var raw []map[string]interface{}

	var envelope struct {
		Query []map[string]interface{} `json:"query"`
	}

	err := json.Unmarshal(body, &envelope)
	if err == nil {
		raw = envelope.Query
	} else {
		err = json.Unmarshal(body, &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse named queries: %w", err)
		}
	}

	out := make([]NamedQuery, 0, len(raw))

	for _, entry := range raw {
		q := NamedQuery{Extra: entry}
		q.Name, _ = entry["name"].(string)
		q.Description, _ = entry["description"].(string)
		out = append(out, q)
	}

	return out, nil
}

// SchemaKind distinguishes schema tables from named queries.
type SchemaKind string

const (
	// KindTable is a schema table (/ws/schema/table/{name}).
	KindTable SchemaKind = "table"
	// KindQuery is a named query (/ws/schema/query/{name}).
	KindQuery SchemaKind = "query"
)

// Method is the HTTP verb used for count and page requests.
func (k SchemaKind) Method() string {
	if k == KindQuery {
		return http.MethodPost
	}

	return http.MethodGet
}

// Path returns the resource path of the named schema.
func (k SchemaKind) Path(name string) string {
	return "/ws/schema/" + string(k) + "/" + name
}

// DefaultPageSize is the page size used when the caller gives none. Tables
// use the server maximum; named queries use 0, which fetches everything in a
// single request.
func (k SchemaKind) DefaultPageSize(md *Metadata) int {
	if k == KindQuery || md == nil {
		return 0
	}

	return md.SchemaTableQueryMaxPageSize
}

// UnwrapRecord extracts the row from a page record. Table rows arrive as
// {"tables": {"<name>": {...}}}; named query rows are used as they are.
func (k SchemaKind) UnwrapRecord(name string, raw json.RawMessage) (Record, error) {
	if k == KindQuery {
		var rec Record

		err := json.Unmarshal(raw, &rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}

		return rec, nil
	}

	return unwrapTable(name, raw)
}

func unwrapTable(name string, raw json.RawMessage) (Record, error) {
	var wrapper struct {
		Tables map[string]Record `json:"tables"`
	}

	err := json.Unmarshal(raw, &wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	if rec, ok := wrapper.Tables[name]; ok {
		return rec, nil
	}

	if rec, ok := wrapper.Tables[strings.ToLower(name)]; ok {
		return rec, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrTableNotInRecord, name)
}

// ParsePage decodes a {"record": [...]} page body.
func ParsePage(kind SchemaKind, name string, body []byte) ([]Record, error) {
	var page struct {
		Record []json.RawMessage `json:"record"`
	}

	err := json.Unmarshal(body, &page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	records := make([]Record, 0, len(page.Record))

	for _, raw := range page.Record {
		rec, err := kind.UnwrapRecord(name, raw)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, nil
}

// ParseCount decodes a {"count": N} body.
func ParseCount(body []byte) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}

	err := json.Unmarshal(body, &resp)
	if err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}

	return resp.Count, nil
}
