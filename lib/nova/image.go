package nova

// Image is either a reference to media already stored by the panel (ID set)
// or a pending upload (Data, FileName, MimeType). A pending upload may start
// out with only OriginalURL, in which case it has to be prepared before it
// can be encoded.
type Image struct {
	ID          int
	MimeType    string
	OriginalURL string
	FileName    string
	Alt         string
	Data        []byte

	// Prepared is set once the bytes were normalized, a prepared image is
	// never fetched or re-encoded again.
	Prepared bool
}

func (img *Image) IsReference() bool {
	return img != nil && img.ID != 0
}

func (img *Image) IsPending() bool {
	return img != nil && img.ID == 0
}
