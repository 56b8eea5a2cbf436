package ailink

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/schema"
	"github.com/go-viper/mapstructure/v2"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/zballl/vibecheck-app/internal/core"
)

var (
	errNoArray      = errors.New("no JSON array found in response")
	errNoValidTrack = errors.New("no element had a title and an artist")
)

// trackSchema accepts an object with non-blank title and artist strings.
var trackSchema = []byte(`{
  "type": "object",
  "required": ["title", "artist"],
  "properties": {
    "title": {"type": "string", "pattern": "\\S"},
    "artist": {"type": "string", "pattern": "\\S"}
  }
}`)

// trackValidator compiles trackSchema once per process.
var trackValidator = sync.OnceValues(func() (*schema.Validator, error) {
	return schema.NewValidator(trackSchema)
})

// ExtractOptions controls link synthesis and diagnostics for Extract.
type ExtractOptions struct {
	// SearchURLTemplate must contain {query}.
	SearchURLTemplate string
	// MaxTracks caps the playlist; zero means core.MaxTracks.
	MaxTracks int
	// RawMaxBytes bounds ExtractError.Raw; zero leaves it empty.
	RawMaxBytes int
}

// ExtractOptionsFromConfig builds extraction options from cfg.
func ExtractOptionsFromConfig(cfg Config) ExtractOptions {
	cfg = cfg.withDefaults()
	opts := ExtractOptions{SearchURLTemplate: cfg.SearchURLTemplate, MaxTracks: core.MaxTracks}
	if isRawCaptureEnabled(cfg) {
		opts.RawMaxBytes = rawLimit(cfg)
	}
	return opts
}

type trackRecord struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// Extract turns the model's reply text into a playlist.
//
// It returns ErrInvalidMood when the reply is the invalid-input sentinel and
// *ExtractError when no usable track can be recovered. Extract is pure.
func Extract(text string, opts ExtractOptions) (playlist *core.Playlist, err error) {
	defer func() {
		if r := recover(); r != nil {
			playlist = nil
			err = &ExtractError{Err: fmt.Errorf("panic during extraction: %v", r), Raw: truncateText(text, opts.RawMaxBytes)}
		}
	}()

	fail := func(cause error) error {
		return &ExtractError{Err: cause, Raw: truncateText(text, opts.RawMaxBytes)}
	}

	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, fail(errors.New("empty response"))
	}
	if isSentinel(cleaned) {
		return nil, ErrInvalidMood
	}

	elements, ok := firstArray(cleaned)
	if !ok {
		if obj, found := firstObject(cleaned); found && hasErrorKey(obj) {
			return nil, ErrInvalidMood
		}
		return nil, fail(errNoArray)
	}
	if first, isObj := elements[0].(map[string]any); isObj && hasErrorKey(first) {
		return nil, ErrInvalidMood
	}

	validator, err := trackValidator()
	if err != nil {
		return nil, fail(fmt.Errorf("compile track schema: %w", err))
	}

	limit := opts.MaxTracks
	if limit <= 0 {
		limit = core.MaxTracks
	}
	template := opts.SearchURLTemplate
	if strings.TrimSpace(template) == "" {
		template = DefaultSearchURLTemplate
	}

	tracks := make([]core.Track, 0, limit)
	for _, elem := range elements {
		if len(tracks) == limit {
			break
		}
		payload, err := json.Marshal(elem)
		if err != nil {
			continue
		}
		diagnostics, err := validator.ValidateJSON(payload)
		if err != nil || len(diagnostics) > 0 {
			continue
		}

		var rec trackRecord
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           &rec,
		})
		if err != nil {
			return nil, fail(fmt.Errorf("create decoder: %w", err))
		}
		if err := decoder.Decode(elem); err != nil {
			continue
		}

		track := core.Track{
			Title:  strings.TrimSpace(rec.Title),
			Artist: strings.TrimSpace(rec.Artist),
			Link:   strings.TrimSpace(rec.Link),
			Reason: strings.TrimSpace(rec.Reason),
		}
		if track.Title == "" || track.Artist == "" {
			continue
		}
		if !usableLink(track.Link) {
			track.Link = SearchLink(template, track.Title, track.Artist)
			track.LinkSynthesized = true
		}
		tracks = append(tracks, track)
	}

	if len(tracks) == 0 {
		return nil, fail(errNoValidTrack)
	}
	return &core.Playlist{Tracks: tracks}, nil
}

// SearchLink fills template's {query} with the escaped "title artist" string.
func SearchLink(template, title, artist string) string {
	return strings.ReplaceAll(template, "{query}", url.QueryEscape(title+" "+artist))
}

func usableLink(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// fenceMarker matches a markdown code fence and its optional language tag.
var fenceMarker = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// stripFences removes code fence markers, keeping any content that shares
// a line with them, and trims surrounding whitespace.
func stripFences(text string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(text, "\n"))
}

// isSentinel reports whether the whole reply is the invalid-input marker,
// a bare array holding the marker, or an object with an error key.
func isSentinel(text string) bool {
	if strings.Trim(text, "\"'.` \t\r\n") == InvalidMoodMarker {
		return true
	}
	switch {
	case strings.HasPrefix(text, "{"):
		var obj map[string]any
		if parseLenient(text, &obj) == nil && hasErrorKey(obj) {
			return true
		}
	case strings.HasPrefix(text, "["):
		var elements []any
		if parseLenient(text, &elements) == nil {
			for _, elem := range elements {
				if marker, ok := elem.(string); ok && strings.TrimSpace(marker) == InvalidMoodMarker {
					return true
				}
			}
		}
	}
	return false
}

func hasErrorKey(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	_, ok := obj["error"]
	return ok
}

// firstArray returns the elements of the first bracketed candidate that
// parses as an array holding at least one object. A candidate that fails to
// parse does not end the scan.
func firstArray(text string) ([]any, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		end := matchClosing(text, i, '[', ']')
		if end < 0 {
			continue
		}
		var elements []any
		if parseLenient(text[i:end+1], &elements) != nil {
			continue
		}
		for _, elem := range elements {
			if _, ok := elem.(map[string]any); ok {
				return elements, true
			}
		}
	}
	return nil, false
}

func firstObject(text string) (map[string]any, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchClosing(text, i, '{', '}')
		if end < 0 {
			continue
		}
		var obj map[string]any
		if parseLenient(text[i:end+1], &obj) == nil {
			return obj, true
		}
	}
	return nil, false
}

// matchClosing returns the index of the bracket closing the one at start,
// ignoring brackets inside quoted strings, or -1.
func matchClosing(text string, start int, open, closer byte) int {
	depth := 0
	var quote byte
	escaped := false
	for j := start; j < len(text); j++ {
		c := text[j]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// parseLenient tries strict JSON first, then JSON5 once over the text with
// single-quoted strings rewritten to double quotes.
func parseLenient(text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	return json5.Unmarshal([]byte(requote(text)), v)
}

// requote rewrites single-quoted strings as double-quoted ones. Double-quoted
// strings pass through untouched, so apostrophes inside them survive.
func requote(text string) string {
	if !strings.Contains(text, "'") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 8)
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch quote {
		case 0:
			if c == '\'' {
				quote = c
				b.WriteByte('"')
				continue
			}
			if c == '"' {
				quote = c
			}
			b.WriteByte(c)
		case '"':
			b.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				i++
				b.WriteByte(text[i])
			} else if c == '"' {
				quote = 0
			}
		case '\'':
			switch {
			case c == '\\' && i+1 < len(text) && text[i+1] == '\'':
				i++
				b.WriteByte('\'')
			case c == '\\' && i+1 < len(text):
				i++
				b.WriteByte(c)
				b.WriteByte(text[i])
			case c == '"':
				b.WriteString(`\"`)
			case c == '\'':
				quote = 0
				b.WriteByte('"')
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}
