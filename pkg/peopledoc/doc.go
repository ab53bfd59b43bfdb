// Package peopledoc talks to the MyPeopleDoc document vault.
//
// It covers the whole connector surface:
//   - Client: an HTTP session holding the vault cookie jar, with
//     Snapshot/Restore for persisting it between runs
//   - Client.IsSessionValid: a cheap probe against the listing endpoint
//   - Authenticator: CAPTCHA, credential login, optional SMS two-factor step
//   - Paginator: walks the document listing following Link rel="next"
//   - MapDocument: turns listing records into download descriptors
//
// All calls are sequential; every blocking operation takes a context.
//
//	client, _ := peopledoc.NewClient(cfg.PeopleDoc, limiter, log)
//	auth := peopledoc.NewAuthenticator(client, solver, channel, store, nil, log)
//	if err := auth.Authenticate(ctx, creds); err != nil {
//	    // errors.IsLoginFailed(err)
//	}
//	result := peopledoc.NewPaginator(client, 0, log).ListAll(ctx)
//	descriptors := peopledoc.MapDocuments(client.BaseURL(), result.Documents)
package peopledoc
