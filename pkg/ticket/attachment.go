package ticket

import (
	"encoding/base64"
	"fmt"

	"github.com/goatkit/otrsclient/internal/convert"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// Attachment is an article attachment. Content is base64 encoded.
type Attachment struct {
	Content     string `json:"Content" yaml:"Content"`
	ContentType string `json:"ContentType" yaml:"ContentType"`
	Filename    string `json:"Filename" yaml:"Filename"`
}

// NewAttachment encodes data for upload.
func NewAttachment(filename, contentType string, data []byte) Attachment {
	return Attachment{
		Content:     base64.StdEncoding.EncodeToString(data),
		ContentType: contentType,
		Filename:    filename,
	}
}

// Validate checks that every field is set.
func (a Attachment) Validate() error {
	switch {
	case a.Content == "":
		return apierrors.New(apierrors.KindArgumentInvalid, "attachment %q has no Content", a.Filename)
	case a.ContentType == "":
		return apierrors.New(apierrors.KindArgumentInvalid, "attachment %q has no ContentType", a.Filename)
	case a.Filename == "":
		return apierrors.New(apierrors.KindArgumentInvalid, "attachment has no Filename")
	}
	return nil
}

// Decode returns the raw attachment bytes.
func (a Attachment) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", a.Filename, err)
	}
	return data, nil
}

// Map returns the wire form.
func (a Attachment) Map() map[string]any {
	return map[string]any{
		"Content":     a.Content,
		"ContentType": a.ContentType,
		"Filename":    a.Filename,
	}
}

func attachmentFromWire(v any) (Attachment, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Attachment{}, apierrors.New(apierrors.KindProtocolError, "attachment is %T, want object", v)
	}
	return Attachment{
		Content:     convert.String(m["Content"]),
		ContentType: convert.String(m["ContentType"]),
		Filename:    convert.String(m["Filename"]),
	}, nil
}
