// Package harvester runs one end-to-end collection of a PeopleDoc vault.
//
// A run restores any persisted session, authenticates (a no-op when the
// session is still valid), walks the document listing, maps every document
// to a descriptor and hands the descriptors to a Saver one at a time:
//
//	h := harvester.New(authenticator, paginator, saver, harvester.Options{
//	    BaseURL:     client.BaseURL(),
//	    ManifestDir: "downloads",
//	}, log)
//	report, err := h.Run(ctx, account)
//
// Only a failed login aborts a run. A listing that stops early is reported
// as partial, and per-document failures are counted in the Report.
package harvester
