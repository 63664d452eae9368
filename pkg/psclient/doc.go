// Package psclient provides the primary entry point for constructing a
// PowerSchool API client that implements the psapi.Client interface.
//
// It layers configuration, HTTP transport, token acquisition and the session
// metadata on top of the interfaces and types defined in the psapi package.
// New authorizes immediately, so the returned client already knows the
// server's maximum table page size.
//
// Quick start
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
//
//	  // Client credentials of a PowerSchool plugin. The scheme is optional.
//	  cli, err := psclient.New(ctx, &psapi.Config{
//	    Host:          "district.powerschool.com",
//	    ClientID:      "client-id",
//	    ClientSecret:  "client-secret",
//	    TokenCacheDir: "/var/cache/powerschool", // optional
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Every readable column of every enrolled student.
//	  students, err := cli.Table("students").Query(ctx, psapi.NewQueryParams().WithQ("enroll_status==0"))
//	  if err != nil { log.Fatal(err) }
//	  _ = students
//
//	  // Sections of every school year back to 2000-2001.
//	  sections, err := cli.Table("sections").QueryHistorical(ctx, 34, "termid", nil, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = sections
//	}
//
// # Helpers
//
// NewWithClientCredentials and NewWithToken cover the two common ways of
// authenticating. A token obtained elsewhere is used until it expires and is
// never refreshed.
package psclient
