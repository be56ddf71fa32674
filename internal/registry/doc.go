// Package registry holds the curated list of marketplaces served by the hub.
//
// The registry file has the shape
//
//	{
//	  "hub": {"name": "...", "description": "...", "version": "..."},
//	  "marketplaces": [
//	    {"id": "acme", "name": "Acme", "description": "...",
//	     "owner": {"name": "Acme"}, "repository": "https://github.com/acme/plugins"}
//	  ]
//	}
//
// and may contain comments and trailing commas. A Manager loads it once, hands
// out the active *Hub to readers, and replaces it on an explicit Reload.
//
// The package also provides builder functions for test data:
//
//	hub := registry.NewTestHub(
//	    registry.WithEntries(
//	        registry.NewTestEntry("acme", registry.WithTags("lint")),
//	    ),
//	)
package registry
