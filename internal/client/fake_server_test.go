package client_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
)

const (
	testClientID     = "plugin-client"
	testClientSecret = "plugin-secret"
	testToken        = "issued-token"
)

// fakePowerSchool serves the subset of the PowerSchool API the client uses.
// Table rows are served from rows, filtered by the q parameter through
// filter when one is set.
type fakePowerSchool struct {
	t      *testing.T
	server *httptest.Server

	maxPageSize int
	rows        []psapi.Record
	filter      func(q string, rows []psapi.Record) []psapi.Record

	mu       sync.Mutex
	requests []string
	bodies   map[string][]string
}

func newFakePowerSchool(t *testing.T, rows []psapi.Record) *fakePowerSchool {
	t.Helper()

	f := &fakePowerSchool{
		t:           t,
		maxPageSize: 2,
		rows:        rows,
		bodies:      map[string][]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/access_token/", f.handleToken)
	mux.HandleFunc("GET /ws/v1/metadata", f.authorized(f.handleMetadata))
	mux.HandleFunc("GET /ws/schema/query/api", f.authorized(f.handleNamedQueries))
	mux.HandleFunc("GET /ws/schema/table/students/metadata", f.authorized(f.handleTableMetadata))
	mux.HandleFunc("GET /ws/schema/table/students/count", f.authorized(f.handleCount))
	mux.HandleFunc("GET /ws/schema/table/students", f.authorized(f.handleTablePage))
	mux.HandleFunc("/ws/schema/table/students/{pk}", f.authorized(f.handleRecord))
	mux.HandleFunc("POST /ws/schema/query/com.example.students/count", f.authorized(f.handleCount))
	mux.HandleFunc("POST /ws/schema/query/com.example.students", f.authorized(f.handleQueryPage))

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

// SetMaxPageSize changes the page size reported by the metadata endpoint.
func (f *fakePowerSchool) SetMaxPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.maxPageSize = n
}

func (f *fakePowerSchool) URL() string {
	return f.server.URL
}

func (f *fakePowerSchool) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()

	entry := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		entry += "?" + r.URL.RawQuery
	}

	f.requests = append(f.requests, entry)
	f.bodies[r.Method+" "+r.URL.Path] = append(f.bodies[r.Method+" "+r.URL.Path], string(body))
}

// Requests returns the recorded requests whose "METHOD path" starts with prefix.
func (f *fakePowerSchool) Requests(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string

	for _, req := range f.requests {
		if strings.HasPrefix(req, prefix) {
			out = append(out, req)
		}
	}

	return out
}

// Bodies returns the request bodies received for "METHOD path".
func (f *fakePowerSchool) Bodies(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.bodies[key]...)
}

func (f *fakePowerSchool) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.record(r)

		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Invalid access token"})

			return
		}

		next(w, r)
	}
}

func (f *fakePowerSchool) handleToken(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	id, secret, ok := r.BasicAuth()
	if !ok || id != testClientID || secret != testClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": testToken,
		"token_type":   "Bearer",
		"expires_in":   "3600",
	})
}

func (f *fakePowerSchool) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	maxPageSize := f.maxPageSize
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"metadata": map[string]interface{}{
			"plugin_id":                        7,
			"powerschool_version":              "24.1.0",
			"schema_table_query_max_page_size": maxPageSize,
		},
	})
}

func (f *fakePowerSchool) handleNamedQueries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query": []map[string]interface{}{
			{"name": "com.example.students", "description": "Active students"},
		},
	})
}

func (f *fakePowerSchool) handleTableMetadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name": "STUDENTS",
		"columns": []map[string]interface{}{
			{"name": "ID", "type": "NUMBER", "access": "FullAccess"},
			{"name": "LAST_NAME", "type": "VARCHAR2", "access": "ViewOnly"},
			{"name": "SSN", "type": "VARCHAR2", "access": "NoAccess"},
		},
	})
}

func (f *fakePowerSchool) matching(r *http.Request) []psapi.Record {
	if f.filter == nil {
		return f.rows
	}

	return f.filter(r.URL.Query().Get("q"), f.rows)
}

func (f *fakePowerSchool) handleCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": len(f.matching(r))})
}

func (f *fakePowerSchool) page(r *http.Request) []psapi.Record {
	rows := f.matching(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pagesize"))

	if size == 0 {
		return rows
	}

	start := (page - 1) * size
	if start >= len(rows) {
		return nil
	}

	return rows[start:min(start+size, len(rows))]
}

func (f *fakePowerSchool) handleTablePage(w http.ResponseWriter, r *http.Request) {
	wrapped := []map[string]interface{}{}

	for _, row := range f.page(r) {
		wrapped = append(wrapped, map[string]interface{}{
			"id":     row["id"],
			"tables": map[string]interface{}{"students": row},
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"name": "students", "record": wrapped})
}

func (f *fakePowerSchool) handleQueryPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": "com.example.students", "record": f.page(r)})
}

func (f *fakePowerSchool) handleRecord(w http.ResponseWriter, r *http.Request) {
	pk := r.PathValue("pk")

	switch r.Method {
	case http.MethodGet:
		for _, row := range f.rows {
			if fmt.Sprint(row["id"]) == pk {
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"id":     row["id"],
					"tables": map[string]interface{}{"students": row},
				})

				return
			}
		}

		writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Record not found"})
	case http.MethodPost, http.MethodPut:
		if pk == "invalid" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"message": "Validation failed",
				"errors": []map[string]string{
					{"resource": "students", "field": "last_name", "code": "missing_field"},
				},
			})

			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"result": "SUCCESS", "success_message": map[string]string{"id": pk}})
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func studentRows(n int) []psapi.Record {
	rows := make([]psapi.Record, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, psapi.Record{"id": strconv.Itoa(i), "last_name": fmt.Sprintf("Student%d", i)})
	}

	return rows
}
