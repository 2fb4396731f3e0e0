package validate

import (
	"github.com/and161185/folio-admin/internal/model"
)

// Page decodes a paged wrapper. content must be an array, the counters
// integral numbers and first/last booleans. Any bad item rejects the whole
// page. The page invariants len(content) <= size and
// 0 <= number < totalPages (when totalElements > 0) are enforced here.
func Page[T any](v any, op string, item func(any) (T, error)) (model.Page[T], error) {
	var p model.Page[T]
	o, ok := object(v)
	if !ok {
		return p, invalid(op, "page is not an object")
	}
	raw, ok := o["content"].([]any)
	if !ok {
		return p, invalid(op, "content is not an array")
	}
	var okTP, okTE, okN, okS, okF, okL bool
	p.TotalPages, okTP = integer(o, "totalPages")
	p.TotalElements, okTE = integer(o, "totalElements")
	p.Number, okN = integer(o, "number")
	p.Size, okS = integer(o, "size")
	p.First, okF = boolean(o, "first")
	p.Last, okL = boolean(o, "last")
	if !okTP || !okTE || !okN || !okS || !okF || !okL {
		return model.Page[T]{}, invalid(op, "pagination fields missing or mistyped")
	}
	if p.TotalPages < 0 || p.TotalElements < 0 || p.Size < 0 {
		return model.Page[T]{}, invalid(op, "negative pagination counters")
	}
	if len(raw) > p.Size {
		return model.Page[T]{}, invalid(op, "content holds %d items, size is %d", len(raw), p.Size)
	}
	if p.TotalElements > 0 && (p.Number < 0 || p.Number >= p.TotalPages) {
		return model.Page[T]{}, invalid(op, "page number %d outside [0,%d)", p.Number, p.TotalPages)
	}

	p.Content = make([]T, 0, len(raw))
	for _, it := range raw {
		t, err := item(it)
		if err != nil {
			return model.Page[T]{}, err
		}
		p.Content = append(p.Content, t)
	}
	return p, nil
}
