package psapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	t.Parallel()

	body := []byte(`{"metadata":{
		"plugin_id": 1234,
		"powerschool_version": "23.4.1",
		"schema_table_query_max_page_size": 100,
		"student_max_page_size": 500
	}}`)

	md, err := psapi.ParseMetadata(body)
	require.NoError(t, err)

	assert.Equal(t, 1234, md.PluginID)
	assert.Equal(t, "23.4.1", md.PowerSchoolVersion)
	assert.Equal(t, 100, md.SchemaTableQueryMaxPageSize)

	v, ok := md.Get("student_max_page_size")
	require.True(t, ok)
	assert.InDelta(t, 500, v, 0)

	_, ok = md.Get("missing")
	assert.False(t, ok)

	_, err = psapi.ParseMetadata([]byte(`not json`))
	require.Error(t, err)
}

func TestSchemaKind(t *testing.T) {
	t.Parallel()

	md := &psapi.Metadata{SchemaTableQueryMaxPageSize: 250}

	assert.Equal(t, http.MethodGet, psapi.KindTable.Method())
	assert.Equal(t, http.MethodPost, psapi.KindQuery.Method())
	assert.Equal(t, "/ws/schema/table/students", psapi.KindTable.Path("students"))
	assert.Equal(t, "/ws/schema/query/com.pearson.core.student.search", psapi.KindQuery.Path("com.pearson.core.student.search"))
	assert.Equal(t, 250, psapi.KindTable.DefaultPageSize(md))
	assert.Equal(t, 0, psapi.KindQuery.DefaultPageSize(md))
	assert.Equal(t, 0, psapi.KindTable.DefaultPageSize(nil))
}

func TestSchemaKind_UnwrapRecord(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`{"id":1,"name":"students","tables":{"students":{"dcid":"1","lastfirst":"Doe, Jane"}}}`)

	rec, err := psapi.KindTable.UnwrapRecord("students", raw)
	require.NoError(t, err)
	assert.Equal(t, "Doe, Jane", rec["lastfirst"])

	rec, err = psapi.KindTable.UnwrapRecord("STUDENTS", raw)
	require.NoError(t, err)
	assert.Equal(t, "1", rec["dcid"])

	_, err = psapi.KindTable.UnwrapRecord("cc", raw)
	require.ErrorIs(t, err, psapi.ErrTableNotInRecord)

	rec, err = psapi.KindQuery.UnwrapRecord("any", json.RawMessage(`{"students.dcid":"7"}`))
	require.NoError(t, err)
	assert.Equal(t, "7", rec["students.dcid"])
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	body := []byte(`{"name":"students","record":[
		{"tables":{"students":{"dcid":"1"}}},
		{"tables":{"students":{"dcid":"2"}}}
	],"@extensions":"activities"}`)

	records, err := psapi.ParsePage(psapi.KindTable, "students", body)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0]["dcid"])
	assert.Equal(t, "2", records[1]["dcid"])

	records, err = psapi.ParsePage(psapi.KindTable, "students", []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	count, err := psapi.ParseCount([]byte(`{"count":1234}`))
	require.NoError(t, err)
	assert.Equal(t, 1234, count)
}

func TestTableMetadata_StarProjection(t *testing.T) {
	t.Parallel()

	md := &psapi.TableMetadata{
		Name: "students",
		Columns: []psapi.Column{
			{Name: "DCID", Access: "ViewOnly"},
			{Name: "LastFirst", Access: "FullAccess"},
			{Name: "SSN", Access: psapi.AccessNoAccess},
			{Name: "Secret", Access: psapi.AccessBlackListNoAccess},
			{Name: "Grade_Level"},
		},
	}

	assert.Equal(t, "dcid,lastfirst,grade_level", md.StarProjection())
}

func TestParseNamedQueries(t *testing.T) {
	t.Parallel()

	queries, err := psapi.ParseNamedQueries([]byte(`{"query":[{"name":"com.example.one","description":"first"},{"name":"com.example.two"}]}`))
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "com.example.one", queries[0].Name)
	assert.Equal(t, "first", queries[0].Description)
	assert.Equal(t, "com.example.two", queries[1].Name)

	queries, err = psapi.ParseNamedQueries([]byte(`[{"name":"bare"}]`))
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "bare", queries[0].Name)
}
