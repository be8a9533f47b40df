package model

// FieldType is the upstream kind of a field.
type FieldType string

const (
	FieldTypeSingleLineText        FieldType = "singleLineText"
	FieldTypeEmail                 FieldType = "email"
	FieldTypeURL                   FieldType = "url"
	FieldTypeMultilineText         FieldType = "multilineText"
	FieldTypeNumber                FieldType = "number"
	FieldTypePercent               FieldType = "percent"
	FieldTypeCurrency              FieldType = "currency"
	FieldTypeSingleSelect          FieldType = "singleSelect"
	FieldTypeMultipleSelects       FieldType = "multipleSelects"
	FieldTypeSingleCollaborator    FieldType = "singleCollaborator"
	FieldTypeMultipleCollaborators FieldType = "multipleCollaborators"
	FieldTypeMultipleRecordLinks   FieldType = "multipleRecordLinks"
	FieldTypeDate                  FieldType = "date"
	FieldTypeDateTime              FieldType = "dateTime"
	FieldTypePhoneNumber           FieldType = "phoneNumber"
	FieldTypeMultipleAttachments   FieldType = "multipleAttachments"
	FieldTypeCheckbox              FieldType = "checkbox"
	FieldTypeFormula               FieldType = "formula"
	FieldTypeCreatedTime           FieldType = "createdTime"
	FieldTypeRollup                FieldType = "rollup"
	FieldTypeCount                 FieldType = "count"
	FieldTypeLookup                FieldType = "lookup"
	FieldTypeMultipleLookupValues  FieldType = "multipleLookupValues"
	FieldTypeAutoNumber            FieldType = "autoNumber"
	FieldTypeBarcode               FieldType = "barcode"
	FieldTypeRating                FieldType = "rating"
	FieldTypeRichText              FieldType = "richText"
	FieldTypeDuration              FieldType = "duration"
	FieldTypeLastModifiedTime      FieldType = "lastModifiedTime"
	FieldTypeButton                FieldType = "button"
	FieldTypeCreatedBy             FieldType = "createdBy"
	FieldTypeLastModifiedBy        FieldType = "lastModifiedBy"
	FieldTypeExternalSyncSource    FieldType = "externalSyncSource"
)

// expectedKinds maps each field type to the cell value kinds it may hold.
// Computed types (formula, rollup, lookup, externalSyncSource) are absent:
// their values depend on configuration we do not fetch.
var expectedKinds = map[FieldType][]ValueKind{
	FieldTypeSingleLineText:        {ValueText},
	FieldTypeEmail:                 {ValueText},
	FieldTypeURL:                   {ValueText},
	FieldTypeMultilineText:         {ValueText},
	FieldTypeRichText:              {ValueText},
	FieldTypePhoneNumber:           {ValueText},
	FieldTypeSingleSelect:          {ValueText},
	FieldTypeDate:                  {ValueText},
	FieldTypeDateTime:              {ValueText},
	FieldTypeCreatedTime:           {ValueText},
	FieldTypeLastModifiedTime:      {ValueText},
	FieldTypeNumber:                {ValueNumber},
	FieldTypePercent:               {ValueNumber},
	FieldTypeCurrency:              {ValueNumber},
	FieldTypeRating:                {ValueNumber},
	FieldTypeDuration:              {ValueNumber},
	FieldTypeAutoNumber:            {ValueNumber},
	FieldTypeCount:                 {ValueNumber},
	FieldTypeCheckbox:              {ValueBool},
	FieldTypeMultipleSelects:       {ValueList},
	FieldTypeMultipleCollaborators: {ValueList},
	FieldTypeMultipleRecordLinks:   {ValueList},
	FieldTypeMultipleAttachments:   {ValueList},
	FieldTypeMultipleLookupValues:  {ValueList},
	FieldTypeSingleCollaborator:    {ValueObject},
	FieldTypeCreatedBy:             {ValueObject},
	FieldTypeLastModifiedBy:        {ValueObject},
	FieldTypeBarcode:               {ValueObject},
	FieldTypeButton:                {ValueObject},
}

var computedTypes = map[FieldType]bool{
	FieldTypeFormula:            true,
	FieldTypeRollup:             true,
	FieldTypeLookup:             true,
	FieldTypeExternalSyncSource: true,
}

// Known reports whether t is one of the upstream field kinds this package
// recognizes.
func (t FieldType) Known() bool {
	_, ok := expectedKinds[t]
	return ok || computedTypes[t]
}

// Accepts reports whether a cell of this field type may hold v. Null is
// always accepted, as are values of unknown or computed types.
func (t FieldType) Accepts(v CellValue) bool {
	if v.IsNull() {
		return true
	}
	kinds, ok := expectedKinds[t]
	if !ok {
		return true
	}
	for _, k := range kinds {
		if v.Kind() == k {
			return true
		}
	}
	return false
}
