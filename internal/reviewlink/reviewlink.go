// Package reviewlink находит в тексте сообщений ссылки на merge request и упоминания пользователей.
package reviewlink

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"review-tracker-bot/internal/domain"
)

// Marker отделяет путь проекта от номера merge request.
const Marker = "/-/merge_requests/"

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s<>|]+`)
	mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)
)

// ParseError описывает причину, по которой ссылка не разобрана.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return domain.ErrMalformedReviewLink
}

// Parser разбирает ссылки для одного код-хостинга.
type Parser struct {
	host string
}

// NewParser создает парсер для указанного хоста.
func NewParser(host string) *Parser {
	return &Parser{host: strings.ToLower(strings.TrimSpace(host))}
}

// Find ищет в тексте первую ссылку на merge request нужного хоста и разбирает ее.
// Если подходящей ссылки нет, возвращается domain.ErrNoReviewLink.
func (p *Parser) Find(text string) (domain.ReviewLink, error) {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u, err := url.Parse(strings.TrimRight(raw, ".,)"))
		if err != nil {
			continue
		}
		if !strings.EqualFold(u.Hostname(), p.host) || !strings.Contains(u.Path, Marker) {
			continue
		}
		return p.parse(u)
	}
	return domain.ReviewLink{}, domain.ErrNoReviewLink
}

// Parse разбирает одну ссылку.
func (p *Parser) Parse(raw string) (domain.ReviewLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return domain.ReviewLink{}, &ParseError{URL: raw, Reason: err.Error()}
	}
	if !strings.EqualFold(u.Hostname(), p.host) {
		return domain.ReviewLink{}, &ParseError{URL: raw, Reason: "unexpected host " + u.Hostname()}
	}
	return p.parse(u)
}

func (p *Parser) parse(u *url.URL) (domain.ReviewLink, error) {
	raw := u.String()
	idx := strings.Index(u.Path, Marker)
	if idx < 0 {
		return domain.ReviewLink{}, &ParseError{URL: raw, Reason: "missing " + Marker}
	}

	segments := splitPath(u.Path[:idx])
	if len(segments) < 2 {
		return domain.ReviewLink{}, &ParseError{URL: raw, Reason: "expected at least workspace and project"}
	}

	rest := splitPath(u.Path[idx+len(Marker):])
	if len(rest) == 0 {
		return domain.ReviewLink{}, &ParseError{URL: raw, Reason: "missing merge request number"}
	}
	number, err := strconv.Atoi(rest[0])
	if err != nil || number <= 0 {
		return domain.ReviewLink{}, &ParseError{URL: raw, Reason: "merge request number is not numeric"}
	}

	link := domain.ReviewLink{
		URL:       canonicalURL(u, u.Path[:idx+len(Marker)]+rest[0]),
		Workspace: segments[0],
		Project:   segments[len(segments)-1],
		Number:    number,
	}
	// три сегмента: workspace/group/project, больше - вложенные группы
	if len(segments) >= 3 {
		link.Group = strings.Join(segments[1:len(segments)-1], "/")
	}
	return link, nil
}

// Mentions возвращает упомянутых пользователей без повторов, исключая бота.
func Mentions(text, botUserID string) []string {
	seen := make(map[string]struct{})
	var users []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if id == botUserID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, id)
	}
	return users
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func canonicalURL(u *url.URL, path string) string {
	c := url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
	return c.String()
}
