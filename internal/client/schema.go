package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/powerschool/internal/http"
	"github.com/fivetwenty-io/powerschool/pkg/fiql"
	"github.com/fivetwenty-io/powerschool/pkg/history"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
)

// emptyBody is sent with named query requests that carry no parameters.
var emptyBody = json.RawMessage("{}")

// SchemaClient implements psapi.TableClient for schema tables and
// psapi.SchemaClient for named queries.
type SchemaClient struct {
	client *Client
	name   string
	kind   psapi.SchemaKind
	path   string
}

func newSchemaClient(client *Client, name string, kind psapi.SchemaKind) *SchemaClient {
	return &SchemaClient{
		client: client,
		name:   name,
		kind:   kind,
		path:   kind.Path(name),
	}
}

// Name implements psapi.SchemaClient.Name.
func (s *SchemaClient) Name() string {
	return s.name
}

// Kind implements psapi.SchemaClient.Kind.
func (s *SchemaClient) Kind() psapi.SchemaKind {
	return s.kind
}

func (s *SchemaClient) requestBody(body interface{}) interface{} {
	if s.kind == psapi.KindQuery && body == nil {
		return emptyBody
	}

	return body
}

// Count implements psapi.SchemaClient.Count.
func (s *SchemaClient) Count(ctx context.Context, params *psapi.QueryParams, body interface{}) (int, error) {
	if s.name == "" {
		return 0, psapi.ErrNameRequired
	}

	resp, err := s.client.httpClient.Do(ctx, &http.Request{
		Method: s.kind.Method(),
		Path:   s.path + "/count",
		Query:  params.CountValues(),
		Body:   s.requestBody(body),
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.name, err)
	}

	return psapi.ParseCount(resp.Body)
}

// Metadata implements psapi.SchemaClient.Metadata. Table metadata is cached;
// named queries have none and yield an empty description.
func (s *SchemaClient) Metadata(ctx context.Context, params *psapi.QueryParams) (*psapi.TableMetadata, error) {
	if s.name == "" {
		return nil, psapi.ErrNameRequired
	}

	if s.kind == psapi.KindQuery {
		return &psapi.TableMetadata{Name: s.name}, nil
	}

	path := s.path + "/metadata"

	var query url.Values
	if params != nil && params.Expansions != "" {
		query = url.Values{"expansions": []string{params.Expansions}}
	}

	key := s.client.cache.GetCacheKey("GET", path, map[string]string{
		"host":       s.client.baseURL,
		"expansions": query.Get("expansions"),
	})

	data, err := s.client.cache.Get(ctx, key)
	if err != nil {
		resp, err := s.client.httpClient.Get(ctx, path, query)
		if err != nil {
			return nil, fmt.Errorf("getting %s metadata: %w", s.name, err)
		}

		data = resp.Body

		err = s.client.cache.Set(ctx, key, data, s.client.metadataTTL)
		if err != nil && s.client.logger != nil {
			s.client.logger.Warn("Failed to cache table metadata", map[string]interface{}{
				"table": s.name,
				"error": err.Error(),
			})
		}
	}

	var metadata psapi.TableMetadata

	err = json.Unmarshal(data, &metadata)
	if err != nil {
		return nil, fmt.Errorf("parsing %s metadata: %w", s.name, err)
	}

	return &metadata, nil
}

// Query implements psapi.SchemaClient.Query.
func (s *SchemaClient) Query(ctx context.Context, params *psapi.QueryParams) ([]psapi.Record, error) {
	return s.QueryWithBody(ctx, params, nil)
}

// QueryWithBody implements psapi.SchemaClient.QueryWithBody. The row count is
// requested first, then every page in order.
func (s *SchemaClient) QueryWithBody(ctx context.Context, params *psapi.QueryParams, body interface{}) ([]psapi.Record, error) {
	prepared, pager, err := s.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	records, err := psapi.FetchAll(ctx, pager, s.countFunc(prepared, body), s.pageFunc(prepared, body), prepared.PageOptions())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.name, err)
	}

	return records, nil
}

// QueryEach implements psapi.SchemaClient.QueryEach.
func (s *SchemaClient) QueryEach(ctx context.Context, params *psapi.QueryParams, body interface{}, fn func(page int, records []psapi.Record) error) error {
	prepared, pager, err := s.prepare(ctx, params)
	if err != nil {
		return err
	}

	err = psapi.ForEachPage(ctx, pager, s.countFunc(prepared, body), s.pageFunc(prepared, body), prepared.PageOptions(), fn)
	if err != nil {
		return fmt.Errorf("querying %s: %w", s.name, err)
	}

	return nil
}

// QueryExpressions implements psapi.SchemaClient.QueryExpressions. The
// expressions run one after another and the first failure aborts the walk.
func (s *SchemaClient) QueryExpressions(ctx context.Context, params *psapi.QueryParams, body interface{}, expressions []string) ([]psapi.Record, error) {
	prepared, pager, err := s.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	all := []psapi.Record{}

	for _, expression := range expressions {
		probe := prepared.Clone()
		probe.Q = fiql.Join(prepared.Q, expression)

		records, err := psapi.FetchAll(ctx, pager, s.countFunc(probe, body), s.pageFunc(probe, body), probe.PageOptions())
		if err != nil {
			return nil, fmt.Errorf("querying %s with %s: %w", s.name, probe.Q, err)
		}

		if s.client.logger != nil {
			s.client.logger.Debug("Historical probe", map[string]interface{}{
				"schema":  s.name,
				"q":       probe.Q,
				"records": len(records),
			})
		}

		all = append(all, records...)
	}

	return all, nil
}

// QueryHistorical implements psapi.SchemaClient.QueryHistorical.
func (s *SchemaClient) QueryHistorical(ctx context.Context, currentYearID int, selector string, params *psapi.QueryParams, body interface{}) ([]psapi.Record, error) {
	expressions, err := history.HistoricalQueries(currentYearID, selector)
	if err != nil {
		return nil, fmt.Errorf("generating historical queries for %s: %w", selector, err)
	}

	return s.QueryExpressions(ctx, params, body, expressions)
}

// prepare resolves the projection and the pager for a paged query.
func (s *SchemaClient) prepare(ctx context.Context, params *psapi.QueryParams) (*psapi.QueryParams, *psapi.Pager, error) {
	if s.name == "" {
		return nil, nil, psapi.ErrNameRequired
	}

	prepared := params.Clone()

	metadata := s.client.Metadata()
	if s.kind == psapi.KindTable && metadata == nil && prepared.PageSize == nil {
		return nil, nil, psapi.ErrNotAuthorized
	}

	if s.kind == psapi.KindTable && prepared.Projection == "" {
		tableMetadata, err := s.Metadata(ctx, psapi.NewQueryParams().WithExpansions("access"))
		if err != nil {
			return nil, nil, err
		}

		prepared.Projection = tableMetadata.StarProjection()
	}

	pager := &psapi.Pager{
		DefaultPageSize: s.kind.DefaultPageSize(metadata),
		Logger:          s.client.logger,
	}

	return prepared, pager, nil
}

func (s *SchemaClient) countFunc(params *psapi.QueryParams, body interface{}) psapi.CountFunc {
	return func(ctx context.Context) (int, error) {
		return s.Count(ctx, params, body)
	}
}

func (s *SchemaClient) pageFunc(params *psapi.QueryParams, body interface{}) psapi.PageFunc[psapi.Record] {
	return func(ctx context.Context, page, pageSize int) ([]psapi.Record, error) {
		query := params.ToValues()
		query.Set("page", strconv.Itoa(page))
		query.Set("pagesize", strconv.Itoa(pageSize))

		resp, err := s.client.httpClient.Do(ctx, &http.Request{
			Method: s.kind.Method(),
			Path:   s.path,
			Query:  query,
			Body:   s.requestBody(body),
		})
		if err != nil {
			return nil, err
		}

		records, err := psapi.ParsePage(s.kind, s.name, resp.Body)
		if err != nil {
			return nil, err
		}

		if s.client.metrics != nil {
			s.client.metrics.AddRecords(s.name, len(records))
		}

		return records, nil
	}
}

func (s *SchemaClient) recordPath(pk string) (string, error) {
	if s.name == "" {
		return "", psapi.ErrNameRequired
	}

	if pk == "" {
		return "", psapi.ErrPrimaryKey
	}

	return s.path + "/" + url.PathEscape(pk), nil
}

// Get implements psapi.TableClient.Get.
func (s *SchemaClient) Get(ctx context.Context, pk string, params *psapi.QueryParams) (psapi.Record, error) {
	path, err := s.recordPath(pk)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if params != nil {
		if params.Projection != "" {
			query.Set("projection", params.Projection)
		}

		if params.Extensions != "" {
			query.Set("extensions", params.Extensions)
		}
	}

	resp, err := s.client.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", s.name, pk, err)
	}

	return psapi.KindTable.UnwrapRecord(s.name, resp.Body)
}

// Insert implements psapi.TableClient.Insert.
func (s *SchemaClient) Insert(ctx context.Context, pk string, body interface{}) (psapi.Record, error) {
	path, err := s.recordPath(pk)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.httpClient.Post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", s.name, err)
	}

	return decodeRecord(resp.Body)
}

// Update implements psapi.TableClient.Update.
func (s *SchemaClient) Update(ctx context.Context, pk string, body interface{}) (psapi.Record, error) {
	path, err := s.recordPath(pk)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.httpClient.Put(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", s.name, pk, err)
	}

	return decodeRecord(resp.Body)
}

// Delete implements psapi.TableClient.Delete.
func (s *SchemaClient) Delete(ctx context.Context, pk string) error {
	path, err := s.recordPath(pk)
	if err != nil {
		return err
	}

	_, err = s.client.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", s.name, pk, err)
	}

	return nil
}

func decodeRecord(body []byte) (psapi.Record, error) {
	record := psapi.Record{}
	if len(body) == 0 {
		return record, nil
	}

	err := json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return record, nil
}

var _ psapi.TableClient = (*SchemaClient)(nil)
