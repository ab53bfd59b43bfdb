// Package storage files downloaded documents on disk.
//
// Documents are written under <base>/<subPath>/<filename> with an atomic
// temp-file-and-rename. A SQLite index keyed by vendor reference records
// every saved file, so a document already harvested is skipped on later runs
// even if its listing metadata changed.
//
//	manager, err := storage.NewManager("downloads", "")
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	if !manager.IsSaved(ctx, "doc-123") {
//	    entry, err := manager.Save(ctx, "doc-123", "MyPeopleDoc", "Jane_payslip.pdf", body)
//	}
package storage
