package catapi

import (
	"fmt"
	"net/url"
	"strings"
)

/*
RequestParams is an ordered set of query parameters. Setting a key that
already exists replaces its value but keeps its original position.
*/
type RequestParams struct {
	keys   []string
	values map[string]string
}

func NewRequestParams() *RequestParams {
	return &RequestParams{
		keys:   []string{},
		values: map[string]string{},
	}
}

// Set stores the value using its default string formatting.
func (p *RequestParams) Set(key string, value any) *RequestParams {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}

	p.values[key] = fmt.Sprint(value)
	return p
}

func (p *RequestParams) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}

	value, ok := p.values[key]
	return value, ok
}

func (p *RequestParams) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

func (p *RequestParams) Len() int {
	if p == nil {
		return 0
	}

	return len(p.keys)
}

func (p *RequestParams) Keys() []string {
	if p == nil {
		return []string{}
	}

	result := make([]string, len(p.keys))
	copy(result, p.keys)
	return result
}

func (p *RequestParams) Clone() *RequestParams {
	result := NewRequestParams()

	if p == nil {
		return result
	}

	for _, key := range p.keys {
		result.Set(key, p.values[key])
	}

	return result
}

// Encode renders the parameters as a URL query string in insertion order.
func (p *RequestParams) Encode() string {
	if p == nil {
		return ""
	}

	pairs := make([]string, 0, len(p.keys))

	for _, key := range p.keys {
		pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(p.values[key]))
	}

	return strings.Join(pairs, "&")
}
