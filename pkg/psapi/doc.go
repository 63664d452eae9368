// Package psapi provides types, interfaces, and helpers for working with the
// PowerSchool REST API.
//
// # Overview
//
// The psapi package defines the domain types (Metadata, Record, TableMetadata,
// Session) and the interfaces for schema-oriented clients (SchemaClient,
// TableClient). A concrete implementation is provided by the psclient package,
// which wires configuration, transport, token acquisition and session
// metadata. Most consumers should import psclient to construct a client and
// then work with the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/powerschool/pkg/psapi"
//	  "github.com/fivetwenty-io/powerschool/pkg/psclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := psclient.New(ctx, &psapi.Config{
//	    Host:         "district.powerschool.com",
//	    ClientID:     "id",
//	    ClientSecret: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  students, err := cli.Table("students").Query(ctx, psapi.NewQueryParams().WithQ("grade_level=ge=9"))
//	  if err != nil { log.Fatal(err) }
//	  _ = students
//	}
//
// # Queries and pagination
//
// QueryParams carries the PowerSchool query options (q, projection, page,
// pagesize, students_to_include, teachers_to_include, sort, sortdescending,
// extensions). Query first asks the server for a row count and then requests
// every page in order, appending records as they arrive. FetchAll and
// PageIterator expose the same plan to callers that bring their own count and
// page functions.
//
// # Errors
//
// API errors are represented by ResponseError (a decoded PowerSchool error
// body) and HTTPError (any other non-2xx response). Helpers such as
// IsNotFound, IsUnauthorized, and IsForbidden branch on common cases.
//
// # Interceptors and caching
//
// Request and response interceptors cover logging, custom headers, request
// ids, client side rate limiting and Prometheus metrics. Table metadata used
// for automatic projections is held in a pluggable Cache, backed by memory or
// a NATS JetStream key-value bucket.
package psapi
