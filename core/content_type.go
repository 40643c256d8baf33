package core

import (
	"mime"
	"strings"
)

type ContentType int

const (
	ContentTypeOther ContentType = iota
	ContentTypeHTML
	ContentTypeScript
	ContentTypeStylesheet
	ContentTypeImage
	ContentTypeAudio
	ContentTypeVideo
	ContentTypeFont
	ContentTypeDocument
	ContentTypeJSON
	ContentTypeXML
	ContentTypeRedirect
)

var contentTypeNames = map[ContentType]string{
	ContentTypeOther:      "other",
	ContentTypeHTML:       "html",
	ContentTypeScript:     "script",
	ContentTypeStylesheet: "stylesheet",
	ContentTypeImage:      "image",
	ContentTypeAudio:      "audio",
	ContentTypeVideo:      "video",
	ContentTypeFont:       "font",
	ContentTypeDocument:   "document",
	ContentTypeJSON:       "json",
	ContentTypeXML:        "xml",
	ContentTypeRedirect:   "redirect",
}

func (c ContentType) String() string {
	if name, ok := contentTypeNames[c]; ok {
		return name
	}
	return "other"
}

// MarshalText lets content types appear by name in JSON output.
func (c ContentType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var extensionContentTypes = map[string]ContentType{
	"html": ContentTypeHTML, "htm": ContentTypeHTML,
	"js": ContentTypeScript, "mjs": ContentTypeScript,
	"css": ContentTypeStylesheet,
	"json": ContentTypeJSON,
	"xml": ContentTypeXML,
	"png": ContentTypeImage, "jpg": ContentTypeImage, "jpeg": ContentTypeImage, "gif": ContentTypeImage,
	"svg": ContentTypeImage, "webp": ContentTypeImage, "avif": ContentTypeImage, "ico": ContentTypeImage,
	"woff": ContentTypeFont, "woff2": ContentTypeFont, "ttf": ContentTypeFont, "otf": ContentTypeFont, "eot": ContentTypeFont,
	"mp3": ContentTypeAudio, "wav": ContentTypeAudio, "m4a": ContentTypeAudio,
	"mp4": ContentTypeVideo, "webm": ContentTypeVideo, "ogv": ContentTypeVideo,
	"pdf": ContentTypeDocument, "doc": ContentTypeDocument, "docx": ContentTypeDocument,
}

// DetectContentType maps a Content-Type header to a ContentType, falling
// back to the URL extension when the header is missing or generic.
func DetectContentType(header, extension string) ContentType {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(header))
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return ContentTypeHTML
	case strings.Contains(mediaType, "javascript") || mediaType == "text/ecmascript":
		return ContentTypeScript
	case mediaType == "text/css":
		return ContentTypeStylesheet
	case strings.HasSuffix(mediaType, "json"):
		return ContentTypeJSON
	case mediaType == "text/xml" || mediaType == "application/xml" || (strings.HasSuffix(mediaType, "+xml") && mediaType != "image/svg+xml"):
		return ContentTypeXML
	case strings.HasPrefix(mediaType, "image/"):
		return ContentTypeImage
	case strings.HasPrefix(mediaType, "font/") || strings.Contains(mediaType, "font"):
		return ContentTypeFont
	case strings.HasPrefix(mediaType, "audio/"):
		return ContentTypeAudio
	case strings.HasPrefix(mediaType, "video/"):
		return ContentTypeVideo
	case mediaType == "application/pdf" || strings.Contains(mediaType, "msword") || strings.Contains(mediaType, "officedocument"):
		return ContentTypeDocument
	}

	if ct, ok := extensionContentTypes[strings.ToLower(extension)]; ok {
		return ct
	}
	return ContentTypeOther
}
