package db

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryGateway is an in-process document store with the subset of MongoDB
// semantics the service relies on: field-equality filters (an array field
// matches when any element equals the wanted value), inclusion/exclusion
// projections, and the $set, $push and $pull update operators.
type MemoryGateway struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
	unique      map[string]map[string]bool
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		collections: make(map[string][]bson.M),
		unique:      make(map[string]map[string]bool),
	}
}

func (m *MemoryGateway) Insert(ctx context.Context, collection string, document interface{}) (primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert %s: %w: %v", collection, ErrStoreUnavailable, err)
	}

	doc, err := toDocument(document)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert %s: %w", collection, err)
	}
	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		doc["_id"] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	if err := m.checkUnique(collection, docs, doc, -1); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert %s: %w", collection, err)
	}
	m.collections[collection] = append(docs, doc)
	return id, nil
}

func (m *MemoryGateway) Find(ctx context.Context, collection string, filter bson.M, projection bson.M, results interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("find %s: %w: %v", collection, ErrStoreUnavailable, err)
	}

	m.mu.RLock()
	var raws [][]byte
	for _, doc := range m.collections[collection] {
		if !matches(doc, filter) {
			continue
		}
		raw, err := bson.Marshal(project(doc, projection))
		if err != nil {
			m.mu.RUnlock()
			return fmt.Errorf("find %s: %w", collection, err)
		}
		raws = append(raws, raw)
	}
	m.mu.RUnlock()

	if err := decodeAll(raws, results); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (m *MemoryGateway) UpdateOne(ctx context.Context, collection string, filter bson.M, update bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("update %s: %w: %v", collection, ErrStoreUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i, doc := range docs {
		if !matches(doc, filter) {
			continue
		}
		updated, err := cloneDocument(doc)
		if err != nil {
			return 0, fmt.Errorf("update %s: %w", collection, err)
		}
		if err := applyUpdate(updated, update); err != nil {
			return 0, fmt.Errorf("update %s: %w", collection, err)
		}
		if reflect.DeepEqual(doc, updated) {
			return 0, nil
		}
		if err := m.checkUnique(collection, docs, updated, i); err != nil {
			return 0, fmt.Errorf("update %s: %w", collection, err)
		}
		docs[i] = updated
		return 1, nil
	}
	return 0, nil
}

func (m *MemoryGateway) DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("delete %s: %w: %v", collection, ErrStoreUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *MemoryGateway) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if !unique {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i := range docs {
		for j := i + 1; j < len(docs); j++ {
			if valuesEqual(docs[i][field], docs[j][field]) {
				return fmt.Errorf("index %s.%s: %w", collection, field, ErrDuplicateKey)
			}
		}
	}
	if m.unique[collection] == nil {
		m.unique[collection] = make(map[string]bool)
	}
	m.unique[collection][field] = true
	return nil
}

// checkUnique must be called with the write lock held. skip is the index of
// the document being replaced, or -1 for inserts.
func (m *MemoryGateway) checkUnique(collection string, docs []bson.M, doc bson.M, skip int) error {
	for field := range m.unique[collection] {
		for i, existing := range docs {
			if i == skip {
				continue
			}
			if valuesEqual(existing[field], doc[field]) {
				return ErrDuplicateKey
			}
		}
	}
	return nil
}

func matches(doc bson.M, filter bson.M) bool {
	for field, want := range filter {
		got := doc[field]
		if arr, ok := got.(primitive.A); ok {
			if _, wantArr := want.(primitive.A); !wantArr {
				if !containsValue(arr, want) {
					return false
				}
				continue
			}
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func project(doc bson.M, projection bson.M) bson.M {
	if len(projection) == 0 {
		return doc
	}

	include := false
	for field, v := range projection {
		if field != "_id" && truthy(v) {
			include = true
			break
		}
	}

	out := bson.M{}
	if include {
		for field, v := range projection {
			if truthy(v) {
				if val, ok := doc[field]; ok {
					out[field] = val
				}
			}
		}
		if v, ok := projection["_id"]; !ok || truthy(v) {
			out["_id"] = doc["_id"]
		}
		return out
	}

	for field, val := range doc {
		if v, ok := projection[field]; ok && !truthy(v) {
			continue
		}
		out[field] = val
	}
	return out
}

func applyUpdate(doc bson.M, update bson.M) error {
	for op, arg := range update {
		fields, ok := arg.(bson.M)
		if !ok {
			return fmt.Errorf("operator %s expects a document, got %T", op, arg)
		}
		switch op {
		case "$set":
			for field, v := range fields {
				nv, err := normalizeValue(v)
				if err != nil {
					return err
				}
				doc[field] = nv
			}
		case "$push":
			for field, v := range fields {
				nv, err := normalizeValue(v)
				if err != nil {
					return err
				}
				var arr primitive.A
				if cur, present := doc[field]; present && cur != nil {
					if arr, ok = cur.(primitive.A); !ok {
						return fmt.Errorf("$push: field %q is not an array", field)
					}
				}
				doc[field] = append(arr, nv)
			}
		case "$pull":
			for field, v := range fields {
				arr, ok := doc[field].(primitive.A)
				if !ok {
					continue
				}
				kept := primitive.A{}
				for _, el := range arr {
					if !valuesEqual(el, v) {
						kept = append(kept, el)
					}
				}
				doc[field] = kept
			}
		default:
			return fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return nil
}

func decodeAll(raws [][]byte, results interface{}) error {
	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results must be a pointer to a slice, got %T", results)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()

	out := reflect.MakeSlice(slice.Type(), 0, len(raws))
	for _, raw := range raws {
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
	}
	slice.Set(out)
	return nil
}

func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func cloneDocument(doc bson.M) (bson.M, error) {
	return toDocument(doc)
}

func normalizeValue(v interface{}) (interface{}, error) {
	doc, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return doc["v"], nil
}

func containsValue(arr primitive.A, want interface{}) bool {
	for _, el := range arr {
		if valuesEqual(el, want) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, da, err := bson.MarshalValue(a)
	if err != nil {
		return false
	}
	tb, db, err := bson.MarshalValue(b)
	if err != nil {
		return false
	}
	return ta == tb && string(da) == string(db)
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	}
	return v != nil
}
