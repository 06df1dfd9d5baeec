package constants

// Article defaults applied when a record omits them.
const (
	DefaultArticleMimeType    = "text/plain"
	DefaultArticleContentType = "text/plain"
	DefaultArticleCharset     = "UTF8"
)

// DynamicFieldPrefix marks service-defined ticket and article attributes in
// flat GenericInterface records (e.g. "DynamicField_Severity").
const DynamicFieldPrefix = "DynamicField_"
