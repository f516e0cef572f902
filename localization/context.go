package localization

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

type contextKey string

func (c contextKey) String() string {
	return "lingo/localization/" + string(c)
}

const (
	ctxKeyLanguage = contextKey("languageKey")

	metadataLanguageKey = "lang"
	acceptLanguage      = "Accept-Language"
)

// ToContext adds the requested languages to the supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts requested languages from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

// ToMap stores languages in a metadata map, used for queue headers.
func ToMap(m map[string]string, lang []string) map[string]string {
	m[metadataLanguageKey] = strings.Join(lang, ",")
	return m
}

// FromMap reads languages stored by ToMap.
func FromMap(m map[string]string) []string {
	lang, ok := m[metadataLanguageKey]
	if !ok || lang == "" {
		return nil
	}
	return splitLanguages(lang)
}

// ExtractLanguageFromHTTPRequest reads the lang query/form value followed by Accept-Language.
func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	var languages []string
	if lang := strings.TrimSpace(req.FormValue(metadataLanguageKey)); lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, ExtractLanguageFromHTTPHeader(req.Header)...)
}

// ExtractLanguageFromHTTPHeader parses the Accept-Language header, dropping quality weights.
func ExtractLanguageFromHTTPHeader(header http.Header) []string {
	return splitLanguages(header.Get(acceptLanguage))
}

// ExtractLanguageFromGrpcRequest parses accept-language from incoming grpc metadata.
func ExtractLanguageFromGrpcRequest(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	header := md.Get(strings.ToLower(acceptLanguage))
	if len(header) == 0 {
		return nil
	}
	return splitLanguages(header[0])
}

func splitLanguages(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	languages := make([]string, 0, len(parts))
	for _, part := range parts {
		lang, _, _ := strings.Cut(part, ";")
		lang = strings.TrimSpace(lang)
		if lang == "" || lang == "*" {
			continue
		}
		languages = append(languages, lang)
	}
	return languages
}
