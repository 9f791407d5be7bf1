// Package ui binds page elements to the presenters and controllers through
// the event dispatcher.
package ui

import "sync"

// Element ids the pages expose
const (
	ElementNewBill     = "btn-new-bill"
	ElementEye         = "icon-eye"
	ElementFile        = "file"
	ElementNewBillForm = "form-new-bill"
	ElementModal       = "modaleFile"
)

// Document answers which elements a rendered page contains
type Document interface {
	Has(id string) bool
}

// StaticDocument is a Document listing its elements up front
type StaticDocument struct {
	mu  sync.RWMutex
	ids map[string]bool
}

// NewStaticDocument creates a document holding ids
func NewStaticDocument(ids ...string) *StaticDocument {
	d := &StaticDocument{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		d.ids[id] = true
	}
	return d
}

// Has reports whether the element exists
func (d *StaticDocument) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ids[id]
}

// Add inserts an element
func (d *StaticDocument) Add(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids[id] = true
}

// BillsDocument is the document of a rendered bills page
func BillsDocument(withRows bool) *StaticDocument {
	d := NewStaticDocument(ElementNewBill, ElementModal)
	if withRows {
		d.Add(ElementEye)
	}
	return d
}

// NewBillDocument is the document of a rendered new-bill page
func NewBillDocument() *StaticDocument {
	return NewStaticDocument(ElementFile, ElementNewBillForm)
}
