package domain

// ImageAttempt records one fetch try made while resolving an image.
// It is never persisted.
type ImageAttempt struct {
	URL   string
	Bytes int64
	Err   error
}

// Failed reports whether the attempt did not produce an image.
func (a ImageAttempt) Failed() bool { return a.Err != nil }

// HostedAsset is a local image file that has been uploaded to object storage.
type HostedAsset struct {
	LocalPath  string `json:"local_path"`
	ObjectPath string `json:"object_path"`
	PublicURL  string `json:"public_url"`
}
