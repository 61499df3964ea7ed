package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

// PageOptions selects one page of a list. Zero values leave the choice to
// the API (first page, default size).
type PageOptions struct {
	Page     int
	PageSize int
}

func (o PageOptions) apply(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	if o.Page > 0 {
		out.Set("Page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		out.Set("PageSize", strconv.Itoa(o.PageSize))
	}
	return out
}

// Page is one page of a list resource.
type Page[T any] struct {
	Items    []T
	Page     int
	NumPages int
	PageSize int
	Total    int
}

type pageMeta struct {
	Page     int `json:"page"`
	NumPages int `json:"num_pages"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// list implements the operations shared by every list resource. key is the
// JSON field holding the page's items.
type list[T any] struct {
	client *Client
	uri    string
	key    string
}

func newList[T any](c *Client, uri, key string) list[T] {
	return list[T]{client: c, uri: uri, key: key}
}

// URI returns the resource path relative to the API host.
func (l list[T]) URI() string { return l.uri }

func (l list[T]) instanceURI(sid string) string {
	return l.uri + "/" + url.PathEscape(sid)
}

// Get fetches one instance by its identifier.
func (l list[T]) Get(ctx context.Context, sid string) (*T, error) {
	var out T
	if _, err := l.client.Do(ctx, http.MethodGet, l.instanceURI(sid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l list[T]) page(ctx context.Context, q url.Values, opts PageOptions) (*Page[T], error) {
	var body json.RawMessage
	if _, err := l.client.Do(ctx, http.MethodGet, l.uri, opts.apply(q), &body); err != nil {
		return nil, err
	}

	var meta pageMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	itemsRaw, ok := fields[l.key]
	if !ok {
		return nil, fmt.Errorf("key %s not present in response", l.key)
	}

	p := &Page[T]{Page: meta.Page, NumPages: meta.NumPages, PageSize: meta.PageSize, Total: meta.Total}
	if err := json.Unmarshal(itemsRaw, &p.Items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.key, err)
	}
	return p, nil
}

// all walks every page from the first, stopping at an empty page or after
// the last page the API reports. An error ends the sequence.
func (l list[T]) all(ctx context.Context, q url.Values, pageSize int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for n := 0; ; n++ {
			p, err := l.page(ctx, q, PageOptions{Page: n, PageSize: pageSize})
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range p.Items {
				if !yield(item, nil) {
					return
				}
			}
			if len(p.Items) == 0 || (p.NumPages > 0 && n+1 >= p.NumPages) {
				return
			}
		}
	}
}

// Count returns the number of instances in the list.
func (l list[T]) Count(ctx context.Context) (int, error) {
	var meta pageMeta
	if _, err := l.client.Do(ctx, http.MethodGet, l.uri, nil, &meta); err != nil {
		return 0, err
	}
	return meta.Total, nil
}

func (l list[T]) create(ctx context.Context, form url.Values) (*T, error) {
	var out T
	status, err := l.client.Do(ctx, http.MethodPost, l.uri, form, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, &Error{Status: status, URI: l.uri, Message: "resource not created"}
	}
	return &out, nil
}

func (l list[T]) update(ctx context.Context, sid string, form url.Values) (*T, error) {
	var out T
	if _, err := l.client.Do(ctx, http.MethodPost, l.instanceURI(sid), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an instance. It reports whether the API confirmed the
// deletion with 204 No Content.
func (l list[T]) Delete(ctx context.Context, sid string) (bool, error) {
	status, err := l.client.Do(ctx, http.MethodDelete, l.instanceURI(sid), nil, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusNoContent, nil
}
