package catalog

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

type Product struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       Value  `json:"price"`
	Thumbnail   string `json:"thumbnail"`
	Code        string `json:"code"`
	Stock       Value  `json:"stock"`

	// Extra holds any other keys of the record so a rewrite keeps them.
	Extra map[string]json.RawMessage `json:"-"`
}

var productKeys = []string{"id", "title", "description", "price", "thumbnail", "code", "stock"}

type productJSON Product

func (p *Product) UnmarshalJSON(b []byte) error {
	var base productJSON
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}
	extra, err := extraKeys(b)
	if err != nil {
		return err
	}

	*p = Product(base)
	p.Extra = extra
	return nil
}

// MarshalJSON writes the fixed fields first, then Extra in key order.
func (p Product) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(productJSON(p))
	if err != nil || len(p.Extra) == 0 {
		return b, err
	}

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range slices.Sorted(maps.Keys(p.Extra)) {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		v := p.Extra[k]
		if len(v) == 0 {
			v = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// extraKeys returns the members of the JSON object b that are not product fields.
// Field names match case-insensitively, as encoding/json does.
func extraKeys(b []byte) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k := range all {
		if slices.ContainsFunc(productKeys, func(f string) bool { return strings.EqualFold(f, k) }) {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// Value is a price or stock as written in the document: a JSON number or a string.
// The raw encoding is kept so a load/persist cycle does not rewrite it.
type Value struct {
	raw json.RawMessage
}

func Number(n float64) Value {
	return Value{raw: json.RawMessage(strconv.FormatFloat(n, 'f', -1, 64))}
}

func Text(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: b}
}

// IsSet reports whether the value was present in the decoded JSON, null included.
func (v Value) IsSet() bool { return len(v.raw) > 0 }

// Truthy treats null, false, 0 and "" as empty.
func (v Value) Truthy() bool {
	if len(v.raw) == 0 {
		return false
	}

	var x any
	if err := json.Unmarshal(v.raw, &x); err != nil {
		return false
	}

	switch t := x.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

func (v Value) String() string {
	if len(v.raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(v.raw, &s) == nil {
		return s
	}
	return string(v.raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	v.raw = bytes.Clone(b)
	return nil
}

// Draft carries the fields of a product to create. The store assigns the id.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       Value  `json:"price"`
	Thumbnail   string `json:"thumbnail"`
	Code        string `json:"code"`
	Stock       Value  `json:"stock"`
}

func (d Draft) missing() []string {
	var out []string
	if d.Title == "" {
		out = append(out, "title")
	}
	if d.Description == "" {
		out = append(out, "description")
	}
	if !d.Price.Truthy() {
		out = append(out, "price")
	}
	if d.Thumbnail == "" {
		out = append(out, "thumbnail")
	}
	if d.Code == "" {
		out = append(out, "code")
	}
	if !d.Stock.Truthy() {
		out = append(out, "stock")
	}
	return out
}

// Patch is a shallow update: nil/unset fields keep the stored value. Keys outside
// the product fields land in Extra and are merged too. An id is never applied.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       Value   `json:"price"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	Code        *string `json:"code,omitempty"`
	Stock       Value   `json:"stock"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (p *Patch) UnmarshalJSON(b []byte) error {
	type patchJSON Patch
	var base patchJSON
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}
	extra, err := extraKeys(b)
	if err != nil {
		return err
	}

	*p = Patch(base)
	p.Extra = extra
	return nil
}

func (p Patch) apply(dst Product) Product {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price.IsSet() {
		dst.Price = p.Price
	}
	if p.Thumbnail != nil {
		dst.Thumbnail = *p.Thumbnail
	}
	if p.Code != nil {
		dst.Code = *p.Code
	}
	if p.Stock.IsSet() {
		dst.Stock = p.Stock
	}
	if len(p.Extra) > 0 {
		merged := maps.Clone(dst.Extra)
		if merged == nil {
			merged = make(map[string]json.RawMessage, len(p.Extra))
		}
		maps.Copy(merged, p.Extra)
		dst.Extra = merged
	}
	return dst
}

// CreateResult tells a created record apart from a create skipped for missing fields.
type CreateResult struct {
	Product Product
	Skipped bool
	Missing []string
}
