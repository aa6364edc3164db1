package objectstore

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidCredentials = errors.New("objectstore: invalid credentials")

// Credentials is the service account document for the storage project.
type Credentials struct {
	ProjectID  string `json:"project_id"`
	URL        string `json:"url"`
	ServiceKey string `json:"service_key"`
	// Bucket pins the bucket and disables discovery.
	Bucket string `json:"bucket,omitempty"`
}

// LoadCredentials reads and checks the credential file at path.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "read credentials %s", path)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, errors.Wrapf(ErrInvalidCredentials, "parse %s: %v", path, err)
	}
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Bucket = strings.TrimSpace(c.Bucket)

	if err := c.Validate(); err != nil {
		return Credentials{}, errors.Wrapf(err, "credentials %s", path)
	}
	return c, nil
}

// Validate checks the fields needed to connect.
func (c Credentials) Validate() error {
	switch {
	case c.URL == "":
		return errors.Wrap(ErrInvalidCredentials, "url is required")
	case c.ServiceKey == "":
		return errors.Wrap(ErrInvalidCredentials, "service_key is required")
	case c.ProjectID == "" && c.Bucket == "":
		return errors.Wrap(ErrInvalidCredentials, "project_id or bucket is required")
	}
	return nil
}
