package ticket

import (
	"fmt"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/internal/convert"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// Article is a ticket article. Subject and Body are required.
type Article struct {
	fields  Fields
	dynamic Fields
}

// NewArticle builds an article from a record. MimeType and ContentType
// default to text/plain when neither is given; Charset defaults to UTF8.
func NewArticle(fields Fields) (*Article, error) {
	if !fields.Has("Subject") || !fields.Has("Body") {
		return nil, apierrors.New(apierrors.KindArgumentMissing, "article requires Subject and Body")
	}

	a := &Article{}
	a.fields, a.dynamic = splitDynamic(fields)

	if !a.fields.Has("MimeType") && !a.fields.Has("ContentType") {
		a.fields["MimeType"] = constants.DefaultArticleMimeType
		a.fields["ContentType"] = constants.DefaultArticleContentType
	}
	if !a.fields.Has("Charset") {
		a.fields["Charset"] = constants.DefaultArticleCharset
	}
	return a, nil
}

// Field returns a schema or dynamic field.
func (a *Article) Field(name string) any {
	if IsDynamicFieldKey(name) {
		return a.dynamic[name]
	}
	return a.fields[name]
}

// SetField sets a field; prefixed names go to the dynamic fields.
func (a *Article) SetField(name string, value any) {
	if IsDynamicFieldKey(name) {
		if a.dynamic == nil {
			a.dynamic = Fields{}
		}
		a.dynamic[name] = value
		return
	}
	if a.fields == nil {
		a.fields = Fields{}
	}
	a.fields[name] = value
}

func (a *Article) Subject() string { return convert.String(a.fields["Subject"]) }
func (a *Article) Body() string    { return convert.String(a.fields["Body"]) }

// Fields returns a copy of the schema fields, the wire form of the article.
func (a *Article) Fields() Fields {
	return a.fields.Clone()
}

// DynamicFields returns the article's dynamic fields as {Name, Value} pairs.
func (a *Article) DynamicFields(notNull bool) []DynamicField {
	return dynamicFieldList(a.dynamic, notNull)
}

func (a *Article) String() string {
	return fmt.Sprintf("Article(Subject=%q, Body=%q)", a.Subject(), a.Body())
}
