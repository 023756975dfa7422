package middleware

import (
	"encoding/json"
	"regexp"
	"strings"

	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// MsgDisallowedHTML is returned when a write request carries markup.
const MsgDisallowedHTML = "Input contains disallowed HTML or script tags or symbols"

var deniedTags = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"embed":  true,
	"object": true,
	"form":   true,
}

var entityRef = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// HTMLGuard rejects POST, PATCH and PUT bodies whose values contain tags, angle
// brackets or entity references. JSON, urlencoded and multipart bodies are
// decoded first; anything else is scanned as raw text.
func HTMLGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPatch, fiber.MethodPut:
		default:
			return c.Next()
		}
		if len(c.Body()) == 0 {
			return c.Next()
		}
		if field, reason := bodyMarkup(c); reason != "" {
			log.Warn().Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Str("field", field).Str("reason", reason).Msg("rejected markup in request body")
			return response.Error(c, fiber.StatusBadRequest, MsgDisallowedHTML)
		}
		return c.Next()
	}
}

func bodyMarkup(c *fiber.Ctx) (string, string) {
	ctype := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(ctype, fiber.MIMEApplicationForm):
		var field, reason string
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			if reason != "" {
				return
			}
			if reason = markupReason(string(k)); reason == "" {
				reason = markupReason(string(v))
			}
			field = string(k)
		})
		return field, reason
	case strings.HasPrefix(ctype, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			// BodyParser rejects it as well
			return "", ""
		}
		for k, values := range form.Value {
			if reason := markupReason(k); reason != "" {
				return k, reason
			}
			for _, v := range values {
				if reason := markupReason(v); reason != "" {
					return k, reason
				}
			}
		}
		return "", ""
	}
	var payload interface{}
	if err := json.Unmarshal(c.Body(), &payload); err == nil {
		return findMarkup(payload, "")
	}
	return "", markupReason(string(c.Body()))
}

// findMarkup walks decoded JSON and returns the path of the first offending string and why.
func findMarkup(v interface{}, path string) (string, string) {
	switch t := v.(type) {
	case string:
		return path, markupReason(t)
	case map[string]interface{}:
		for k, child := range t {
			if reason := markupReason(k); reason != "" {
				return joinPath(path, k), reason
			}
			if p, reason := findMarkup(child, joinPath(path, k)); reason != "" {
				return p, reason
			}
		}
	case []interface{}:
		for _, child := range t {
			if p, reason := findMarkup(child, path+"[]"); reason != "" {
				return p, reason
			}
		}
	}
	return "", ""
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// ContainsMarkup reports whether s holds any tag, comment, angle bracket or entity reference.
func ContainsMarkup(s string) bool {
	return markupReason(s) != ""
}

func markupReason(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
tokens:
	for {
		switch z.Next() {
		case html.ErrorToken:
			break tokens
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if deniedTags[string(name)] {
				return "denied tag " + string(name)
			}
			return "tag " + string(name)
		case html.CommentToken, html.DoctypeToken:
			return "comment"
		}
	}
	// unterminated tags end the tokenizer early
	if strings.ContainsAny(s, "<>") {
		return "angle bracket"
	}
	if entityRef.MatchString(s) {
		return "entity reference"
	}
	return ""
}
