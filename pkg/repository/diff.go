package repository

import (
	"reflect"
	"strings"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

var metaType = reflect.TypeOf(model.Meta{})

// diffChanges computes the field-level differences between two entity states.
// The embedded audit fields (id, version, timestamps) are excluded: they
// change on every mutation and would be noise in the change list.
func diffChanges(oldE, newE any) []model.FieldChange {
	oldV := reflect.ValueOf(oldE).Elem()
	newV := reflect.ValueOf(newE).Elem()
	t := oldV.Type()

	var changes []model.FieldChange
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type == metaType {
			continue
		}

		oldF := oldV.Field(i).Interface()
		newF := newV.Field(i).Interface()
		if reflect.DeepEqual(oldF, newF) {
			continue
		}
		changes = append(changes, model.FieldChange{
			Field: fieldName(field),
			Old:   oldF,
			New:   newF,
		})
	}
	return changes
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return field.Name
	}
	return tag
}
