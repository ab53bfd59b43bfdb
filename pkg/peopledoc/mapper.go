package peopledoc

// MapDocument turns a listing record into a download descriptor. It is pure:
// the same record always yields the same descriptor.
func MapDocument(baseURL string, doc Document) Descriptor {
	filename := doc.Name
	if doc.Profile != nil && doc.Profile.Name != "" {
		filename = doc.Profile.Name + "_" + doc.Name
	}

	return Descriptor{
		Title:     doc.Title,
		SubPath:   SubPath,
		FileURL:   NewEndpoints(baseURL).DownloadURL(string(doc.ID)),
		Filename:  filename,
		VendorRef: string(doc.ID),
		RequestOptions: RequestOptions{
			Headers: map[string]string{"Accept": "*/*"},
		},
	}
}

// MapDocuments maps records preserving their order
func MapDocuments(baseURL string, docs []Document) []Descriptor {
	out := make([]Descriptor, 0, len(docs))
	for _, doc := range docs {
		out = append(out, MapDocument(baseURL, doc))
	}
	return out
}
